package domain

import "time"

// EnrollmentStatus is derived from the completed-lesson ratio of a course.
type EnrollmentStatus string

const (
	EnrollmentNotStarted EnrollmentStatus = "not_started"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
)

// LessonStatus is the per-user-per-lesson state. A missing row means not started.
type LessonStatus string

const (
	LessonNotStarted LessonStatus = "not_started"
	LessonInProgress LessonStatus = "in_progress"
	LessonCompleted  LessonStatus = "completed"
)

// XPSource tags every ledger entry with what triggered the grant.
type XPSource string

const (
	SourceLessonCompletion XPSource = "lesson_completion"
	SourceCourseCompletion XPSource = "course_completion"
	SourceQuizCompletion   XPSource = "quiz_completion"
	SourceBadgeEarned      XPSource = "badge_earned"
)

// Valid reports whether s is one of the known ledger sources.
func (s XPSource) Valid() bool {
	switch s {
	case SourceLessonCompletion, SourceCourseCompletion, SourceQuizCompletion, SourceBadgeEarned:
		return true
	}
	return false
}

// User carries identity plus the cached progression summary.
// XP is the running sum of the user's ledger entries; Level is display-only.
type User struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	AvatarURL  string     `json:"avatar_url"`
	XP         int64      `json:"xp"`
	Level      int        `json:"level"`
	Streak     int        `json:"streak"`
	LastActive *time.Time `json:"last_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Course is the catalog view the engine needs.
type Course struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	XPReward int64  `json:"xp_reward"`
}

// Lesson is a catalog lesson joined with its course.
type Lesson struct {
	ID             int64  `json:"id"`
	CourseID       int64  `json:"course_id"`
	Title          string `json:"title"`
	OrderIndex     int    `json:"order_index"`
	CourseTitle    string `json:"course_title"`
	CourseXPReward int64  `json:"course_xp_reward"`
}

// Enrollment links a user to a course. Status, PercentProgress and CompletedAt
// are derived; callers never set them directly.
type Enrollment struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	CourseID        int64            `json:"course_id"`
	Status          EnrollmentStatus `json:"status"`
	PercentProgress int              `json:"percent_progress"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// LessonProgress is monotonic: once completed it never changes again.
type LessonProgress struct {
	UserID      int64        `json:"user_id"`
	LessonID    int64        `json:"lesson_id"`
	Status      LessonStatus `json:"status"`
	StartedAt   *time.Time   `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// XPTransaction is one immutable ledger entry.
type XPTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Amount      int64     `json:"xp_amount"`
	Source      XPSource  `json:"source"`
	ReferenceID int64     `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Badge is tied to at most one course.
type Badge struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"course_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	XPReward    int64  `json:"xp_reward"`
}

// UserBadge records a badge grant; unique per (user, badge).
type UserBadge struct {
	UserID   int64     `json:"user_id"`
	BadgeID  int64     `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// Question is one entry of a quiz answer key.
type Question struct {
	ID            int64    `json:"id"`
	QuizID        int64    `json:"quiz_id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Order         int      `json:"question_order"`
}

// Quiz is the catalog quiz with its answer key.
type Quiz struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	XPReward       int64      `json:"xp_reward"`
	TotalQuestions int        `json:"total_questions"` // configured count, falls back to len(Questions)
	Questions      []Question `json:"questions"`
}

// QuestionCount is the denominator used for scoring.
func (q Quiz) QuestionCount() int {
	if q.TotalQuestions > 0 {
		return q.TotalQuestions
	}
	return len(q.Questions)
}

// AnswerSubmission is one submitted (question, answer) pair.
type AnswerSubmission struct {
	QuestionID int64  `json:"question_id"`
	UserAnswer string `json:"user_answer"`
}

// UserAnswer is frozen at submission time against the answer key of that moment.
type UserAnswer struct {
	AttemptID  int64     `json:"attempt_id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	UserAnswer string    `json:"user_answer"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// QuizAttempt is one immutable submission.
type QuizAttempt struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	QuizID         int64        `json:"quiz_id"`
	Score          int          `json:"score"`
	TotalCorrect   int          `json:"total_correct"`
	TotalQuestions int          `json:"total_questions"`
	XPEarned       int64        `json:"xp_earned"`
	CompletionTime int          `json:"completion_time"`
	CreatedAt      time.Time    `json:"created_at"`
	Answers        []UserAnswer `json:"answers,omitempty"`
}

// LevelThreshold is a read-only row of level_configurations.
type LevelThreshold struct {
	Level      int   `json:"level"`
	XPRequired int64 `json:"xp_required"`
}

// RankedUser is a leaderboard row: Rank is the dense rank, Position the ordinal.
type RankedUser struct {
	User     User  `json:"user"`
	Rank     int64 `json:"rank"`
	Position int64 `json:"position"`
}

// LeaderboardStats aggregates the users table.
type LeaderboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	AverageXP         int64   `json:"average_xp"`
	MaxXP             int64   `json:"max_xp"`
	AverageLevel      float64 `json:"average_level"`
	MaxLevel          int     `json:"max_level"`
	ActiveUsers       int64   `json:"active_users"`
	AverageStreak     float64 `json:"average_streak"`
	RecentActiveUsers int64   `json:"recent_active_users"`
}
