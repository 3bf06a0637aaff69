package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/app"
	"progression-service/internal/logger"
)

// RouterConfig carries what NewRouter wires into routes.
type RouterConfig struct {
	Progression    *app.ProgressionService
	Leaderboard    *app.LeaderboardService
	Auth           *Authenticator
	Logger         *logger.Logger
	AllowedOrigins []string
	Development    bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	resp := responder{development: cfg.Development, log: cfg.Logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	learn := NewLearnHandler(cfg.Progression, resp)
	practice := NewPracticeHandler(cfg.Progression, resp)
	progress := NewProgressHandler(cfg.Progression, resp)
	board := NewLeaderboardHandler(cfg.Leaderboard, resp)

	protected := r.Group("/")
	protected.Use(cfg.Auth.RequireAuth())
	{
		protected.POST("/learn/enroll/:course_id", learn.Enroll)
		protected.DELETE("/learn/unenroll/:course_id", learn.Unenroll)
		protected.POST("/learn/start/:lesson_id", learn.StartLesson)
		protected.POST("/learn/complete/:lesson_id", learn.CompleteLesson)

		protected.POST("/practice/submit/:quiz_id", practice.Submit)
		protected.GET("/practice/attempts/:quiz_id", practice.Attempts)

		protected.GET("/profile/leaderboard", board.Position)
		protected.GET("/profile/lesson-progress/:lesson_id", progress.LessonProgress)
		protected.GET("/profile/course-progress/:course_id", progress.CourseProgress)
	}

	public := r.Group("/leaderboard")
	public.Use(cfg.Auth.OptionalAuth())
	{
		public.GET("", board.List)
		public.GET("/top", board.Top)
		public.GET("/stats", board.Stats)
	}
	return r
}
