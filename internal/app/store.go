package app

import (
	"context"
	"time"

	"progression-service/internal/domain"
)

// UnitOfWork runs fn inside one atomic scope. Every write performed through tx
// is applied together when fn returns nil, and none of them is visible when fn
// returns an error.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of repositories available inside a unit of work.
type Tx interface {
	CatalogReader
	UserRepository
	EnrollmentRepository
	ProgressRepository
	LedgerRepository
	BadgeRepository
	AttemptRepository
}

// CatalogReader exposes the read-only course catalog. Lookups of a missing
// course or lesson return domain.ErrNotFound.
type CatalogReader interface {
	Course(ctx context.Context, courseID int64) (domain.Course, error)
	LessonWithCourse(ctx context.Context, lessonID int64) (domain.Lesson, error)
	CourseLessons(ctx context.Context, courseID int64) ([]domain.Lesson, error)
	// NextLesson returns the lesson following afterOrder in the course, nil at the end.
	NextLesson(ctx context.Context, courseID int64, afterOrder int) (*domain.Lesson, error)
	CountLessons(ctx context.Context, courseID int64) (int, error)
	// BadgeForCourse returns nil when the course has no badge.
	BadgeForCourse(ctx context.Context, courseID int64) (*domain.Badge, error)
}

// UserRepository reads and updates the cached progression summary of a user.
type UserRepository interface {
	// LockUser reads the user and holds it until the unit of work ends.
	LockUser(ctx context.Context, userID int64) (domain.User, error)
	UpdateUser(ctx context.Context, userID int64, patch domain.UserPatch) error
	// IncrementXP adds amount to the cached total and returns the new total.
	IncrementXP(ctx context.Context, userID int64, amount int64) (int64, error)
}

// EnrollmentRepository persists course enrollments.
type EnrollmentRepository interface {
	// Enrollment returns nil when the user is not enrolled.
	Enrollment(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error)
	CreateEnrollment(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error)
	UpdateEnrollment(ctx context.Context, userID, courseID int64, patch domain.EnrollmentPatch) (domain.Enrollment, error)
	DeleteEnrollment(ctx context.Context, userID, courseID int64) error
}

// ProgressRepository persists per-lesson progress.
type ProgressRepository interface {
	// LessonProgress returns nil when no row exists.
	LessonProgress(ctx context.Context, userID, lessonID int64) (*domain.LessonProgress, error)
	CourseLessonProgress(ctx context.Context, userID, courseID int64) ([]domain.LessonProgress, error)
	// StartLesson marks the lesson in progress unless it already is, or is
	// completed. The stored row is returned either way.
	StartLesson(ctx context.Context, userID, lessonID int64, now time.Time) (domain.LessonProgress, error)
	// CompleteLesson moves the lesson into completed in one conditional write.
	// applied is false when the row was already completed; the stored row is
	// returned in that case.
	CompleteLesson(ctx context.Context, userID, lessonID int64, now time.Time) (progress domain.LessonProgress, applied bool, err error)
	CountCompletedLessons(ctx context.Context, userID, courseID int64) (int, error)
	DeleteCourseProgress(ctx context.Context, userID, courseID int64) error
}

// LedgerRepository appends to the XP ledger. Entries are never updated or removed.
type LedgerRepository interface {
	AppendXP(ctx context.Context, entry domain.XPTransaction) (domain.XPTransaction, error)
	HasXPEntry(ctx context.Context, userID int64, source domain.XPSource, referenceID int64) (bool, error)
	// SumXP totals the user's entries of source whose reference is in referenceIDs.
	SumXP(ctx context.Context, userID int64, source domain.XPSource, referenceIDs []int64) (int64, error)
}

// BadgeRepository records badge grants.
type BadgeRepository interface {
	// InsertUserBadge is idempotent: inserted is false when the user already holds the badge.
	InsertUserBadge(ctx context.Context, userID, badgeID int64, now time.Time) (inserted bool, err error)
}

// AttemptRepository persists quiz attempts and their frozen answers.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error)
	// Attempts lists attempts newest first and reports the total count.
	Attempts(ctx context.Context, userID, quizID int64, limit, offset int) ([]domain.QuizAttempt, int, error)
	// BestAttempt returns nil when the user never attempted the quiz.
	BestAttempt(ctx context.Context, userID, quizID int64) (*domain.QuizAttempt, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// RankingSource answers ordered queries over all users by (xp desc, created_at asc).
type RankingSource interface {
	Page(ctx context.Context, limit, offset int) ([]domain.RankedUser, error)
	// Position returns domain.ErrNotFound for an unknown user.
	Position(ctx context.Context, userID int64) (domain.RankedUser, error)
	// Range returns the users at positions from..to inclusive.
	Range(ctx context.Context, from, to int64) ([]domain.RankedUser, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context, recentSince time.Time) (domain.LeaderboardStats, error)
	LevelThresholds(ctx context.Context) ([]domain.LevelThreshold, error)
}

// SummaryCache stores the podium/stats summary between refreshes.
type SummaryCache interface {
	// GetSummary returns nil, nil on a miss.
	GetSummary(ctx context.Context) (*LeaderboardSummary, error)
	SetSummary(ctx context.Context, summary LeaderboardSummary, ttl time.Duration) error
}
