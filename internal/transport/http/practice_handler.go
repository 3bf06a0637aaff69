package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

// PracticeHandler exposes quiz submission and attempt history.
type PracticeHandler struct {
	responder
	service *app.ProgressionService
}

func NewPracticeHandler(service *app.ProgressionService, r responder) *PracticeHandler {
	return &PracticeHandler{responder: r, service: service}
}

type submitRequest struct {
	Answers        []domain.AnswerSubmission `json:"answers"`
	CompletionTime int                       `json:"completion_time"`
}

func (h *PracticeHandler) Submit(c *gin.Context) {
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Answers == nil {
		badRequest(c, "Answers array is required")
		return
	}

	out, err := h.service.SubmitQuiz(c.Request.Context(), mustUserID(c), quizID, req.Answers, req.CompletionTime)
	if err != nil {
		h.fail(c, err, "Failed to submit quiz")
		return
	}

	respondOK(c, http.StatusOK, "Quiz submitted successfully", gin.H{
		"attempt": gin.H{
			"id":              out.Attempt.ID,
			"score":           out.Attempt.Score,
			"total_correct":   out.Attempt.TotalCorrect,
			"total_questions": out.Attempt.TotalQuestions,
			"completion_time": out.Attempt.CompletionTime,
			"xp_earned":       out.Attempt.XPEarned,
			"created_at":      out.Attempt.CreatedAt,
		},
		"quiz": gin.H{
			"id":        out.Quiz.ID,
			"title":     out.Quiz.Title,
			"xp_reward": out.Quiz.XPReward,
		},
		"performance": gin.H{
			"grade":   domain.GradeForScore(out.Grading.Score),
			"passed":  out.Grading.Passed(),
			"message": domain.PerformanceMessage(out.Grading.Score),
		},
		"details": domain.ResultDetails(out.Quiz, out.Grading),
		"streak":  out.Streak,
	})
}

func (h *PracticeHandler) Attempts(c *gin.Context) {
	quizID, ok := pathID(c, "quiz_id")
	if !ok {
		return
	}
	history, err := h.service.QuizAttempts(c.Request.Context(), mustUserID(c), quizID,
		queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		h.failRead(c, err, "Failed to get quiz attempts")
		return
	}

	var best interface{}
	if history.Best != nil {
		best = gin.H{
			"score":      history.Best.Score,
			"xp_earned":  history.Best.XPEarned,
			"created_at": history.Best.CreatedAt,
		}
	}
	attempts := make([]gin.H, 0, len(history.Attempts))
	for _, a := range history.Attempts {
		attempts = append(attempts, gin.H{
			"id":              a.ID,
			"score":           a.Score,
			"total_correct":   a.TotalCorrect,
			"total_questions": a.TotalQuestions,
			"xp_earned":       a.XPEarned,
			"completion_time": a.CompletionTime,
			"created_at":      a.CreatedAt,
		})
	}

	respondOK(c, http.StatusOK, "Quiz attempts retrieved successfully", gin.H{
		"quiz":         gin.H{"id": history.Quiz.ID, "title": history.Quiz.Title, "max_xp": history.Quiz.XPReward},
		"best_attempt": best,
		"attempts":     attempts,
		"pagination":   pagination(history.Page, history.Limit, int64(history.Total)),
	})
}

func pagination(page, limit int, total int64) gin.H {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return gin.H{
		"current_page":   page,
		"total_pages":    pages,
		"total_items":    total,
		"items_per_page": limit,
	}
}
