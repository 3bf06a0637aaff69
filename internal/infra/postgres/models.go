package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"progression-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64      `bun:"id,pk,autoincrement"`
	Username   string     `bun:"username"`
	Email      string     `bun:"email"`
	AvatarURL  *string    `bun:"avatar_url"`
	XP         int64      `bun:"xp"`
	Level      int        `bun:"level"`
	Streak     int        `bun:"streak"`
	LastActive *time.Time `bun:"last_active,type:date"`
	CreatedAt  time.Time  `bun:"created_at"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:         r.ID,
		Username:   r.Username,
		Email:      r.Email,
		XP:         r.XP,
		Level:      r.Level,
		Streak:     r.Streak,
		LastActive: r.LastActive,
		CreatedAt:  r.CreatedAt,
	}
	if r.AvatarURL != nil {
		u.AvatarURL = *r.AvatarURL
	}
	return u
}

type courseRow struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Title    string `bun:"title"`
	XPReward int64  `bun:"xp_reward"`
}

func (r courseRow) toDomain() domain.Course {
	return domain.Course{ID: r.ID, Title: r.Title, XPReward: r.XPReward}
}

// lessonRow is read through a join with courses.
type lessonRow struct {
	bun.BaseModel `bun:"table:lessons,alias:l"`

	ID             int64  `bun:"id,pk,autoincrement"`
	CourseID       int64  `bun:"course_id"`
	Title          string `bun:"title"`
	OrderIndex     int    `bun:"order_index"`
	CourseTitle    string `bun:"course_title,scanonly"`
	CourseXPReward int64  `bun:"course_xp_reward,scanonly"`
}

func (r lessonRow) toDomain() domain.Lesson {
	return domain.Lesson{
		ID:             r.ID,
		CourseID:       r.CourseID,
		Title:          r.Title,
		OrderIndex:     r.OrderIndex,
		CourseTitle:    r.CourseTitle,
		CourseXPReward: r.CourseXPReward,
	}
}

type enrollmentRow struct {
	bun.BaseModel `bun:"table:course_enrollments,alias:ce"`

	ID              int64      `bun:"id,pk,autoincrement"`
	UserID          int64      `bun:"user_id"`
	CourseID        int64      `bun:"course_id"`
	Status          string     `bun:"status"`
	PercentProgress int        `bun:"percent_progress"`
	StartedAt       time.Time  `bun:"started_at"`
	CompletedAt     *time.Time `bun:"completed_at"`
	CreatedAt       time.Time  `bun:"created_at"`
}

func (r enrollmentRow) toDomain() domain.Enrollment {
	return domain.Enrollment{
		ID:              r.ID,
		UserID:          r.UserID,
		CourseID:        r.CourseID,
		Status:          domain.EnrollmentStatus(r.Status),
		PercentProgress: r.PercentProgress,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		CreatedAt:       r.CreatedAt,
	}
}

type lessonProgressRow struct {
	bun.BaseModel `bun:"table:lesson_progress,alias:lp"`

	UserID      int64      `bun:"user_id,pk"`
	LessonID    int64      `bun:"lesson_id,pk"`
	Status      string     `bun:"status"`
	StartedAt   *time.Time `bun:"started_at"`
	CompletedAt *time.Time `bun:"completed_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
}

func (r lessonProgressRow) toDomain() domain.LessonProgress {
	return domain.LessonProgress{
		UserID:      r.UserID,
		LessonID:    r.LessonID,
		Status:      domain.LessonStatus(r.Status),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type xpTransactionRow struct {
	bun.BaseModel `bun:"table:xp_transactions,alias:xt"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id"`
	Amount      int64     `bun:"xp_amount"`
	Source      string    `bun:"source"`
	ReferenceID int64     `bun:"reference_id"`
	CreatedAt   time.Time `bun:"created_at"`
}

type badgeRow struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CourseID    int64  `bun:"course_id"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
	IconURL     string `bun:"icon_url"`
	XPReward    int64  `bun:"xp_reward"`
}

func (r badgeRow) toDomain() domain.Badge {
	return domain.Badge{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Name:        r.Name,
		Description: r.Description,
		IconURL:     r.IconURL,
		XPReward:    r.XPReward,
	}
}

type quizAttemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         int64     `bun:"user_id"`
	QuizID         int64     `bun:"quiz_id"`
	Score          int       `bun:"score"`
	TotalCorrect   int       `bun:"total_correct"`
	TotalQuestions int       `bun:"total_questions"`
	XPEarned       int64     `bun:"xp_earned"`
	CompletionTime int       `bun:"completion_time"`
	CreatedAt      time.Time `bun:"created_at"`
}

func (r quizAttemptRow) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalCorrect:   r.TotalCorrect,
		TotalQuestions: r.TotalQuestions,
		XPEarned:       r.XPEarned,
		CompletionTime: r.CompletionTime,
		CreatedAt:      r.CreatedAt,
	}
}

type userAnswerRow struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID         int64     `bun:"id,pk,autoincrement"`
	AttemptID  int64     `bun:"attempt_id"`
	UserID     int64     `bun:"user_id"`
	QuestionID int64     `bun:"question_id"`
	UserAnswer string    `bun:"user_answer"`
	IsCorrect  bool      `bun:"is_correct"`
	AnsweredAt time.Time `bun:"answered_at"`
}
