package app

import (
	"context"
	"time"

	"progression-service/internal/domain"
	"progression-service/internal/logger"
)

const (
	// DefaultLessonXP is granted once per completed lesson.
	DefaultLessonXP int64 = 25
	// DefaultTxTimeout bounds one unit of work once it detached from the request.
	DefaultTxTimeout = 10 * time.Second
)

// ProgressionOptions tunes the progression engine.
type ProgressionOptions struct {
	LessonXP  int64
	Location  *time.Location // reference zone for streak calendar days
	TxTimeout time.Duration
	Clock     func() time.Time
	Logger    *logger.Logger
}

// ProgressionService orchestrates every multi-entity progression mutation.
type ProgressionService struct {
	uow       UnitOfWork
	quizzes   QuizRepository
	log       *logger.Logger
	now       func() time.Time
	loc       *time.Location
	lessonXP  int64
	txTimeout time.Duration
}

func NewProgressionService(uow UnitOfWork, quizzes QuizRepository, opts ProgressionOptions) *ProgressionService {
	s := &ProgressionService{
		uow:       uow,
		quizzes:   quizzes,
		log:       opts.Logger,
		now:       opts.Clock,
		loc:       opts.Location,
		lessonXP:  opts.LessonXP,
		txTimeout: opts.TxTimeout,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.lessonXP <= 0 {
		s.lessonXP = DefaultLessonXP
	}
	if s.txTimeout <= 0 {
		s.txTimeout = DefaultTxTimeout
	}
	return s
}

// inTx detaches the unit of work from request cancellation so a dropped
// client cannot interrupt it between steps; txTimeout bounds it instead.
func (s *ProgressionService) inTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()
	return s.uow.WithinTx(ctx, fn)
}

// LessonStart is the outcome of StartLesson.
type LessonStart struct {
	Progress       domain.LessonProgress
	AlreadyStarted bool
}

// CourseCompletion describes the rewards granted when a course reaches 100%.
type CourseCompletion struct {
	XPAwarded     int64
	BadgesAwarded []domain.Badge
}

// LessonCompletion is the outcome of CompleteLesson.
type LessonCompletion struct {
	Lesson           domain.Lesson
	Progress         domain.CourseProgress
	Enrollment       domain.Enrollment
	XPEarned         int64
	TotalXPEarned    int64
	NextLesson       *domain.Lesson
	CourseCompletion *CourseCompletion
}

// CourseCompleted reports whether this completion finished the course.
func (c LessonCompletion) CourseCompleted() bool { return c.CourseCompletion != nil }

// QuizSubmission is the outcome of SubmitQuiz.
type QuizSubmission struct {
	Quiz    domain.Quiz
	Attempt domain.QuizAttempt
	Grading domain.Grading
	Streak  int
}

// Enroll creates a not_started enrollment for the course.
func (s *ProgressionService) Enroll(ctx context.Context, userID, courseID int64) (domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Course(ctx, courseID); err != nil {
			return err
		}
		existing, err := tx.Enrollment(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &domain.AlreadyEnrolledError{Enrollment: *existing}
		}

		now := s.now()
		enrollment, err = tx.CreateEnrollment(ctx, domain.Enrollment{
			UserID:    userID,
			CourseID:  courseID,
			Status:    domain.EnrollmentNotStarted,
			StartedAt: now,
			CreatedAt: now,
		})
		return err
	})
	return enrollment, err
}

// Unenroll removes the enrollment and the user's lesson progress for the
// course. Ledger entries already granted stay in place.
func (s *ProgressionService) Unenroll(ctx context.Context, userID, courseID int64) error {
	return s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		enrollment, err := requireEnrollment(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrollment.Status == domain.EnrollmentCompleted {
			return domain.InvalidInput("cannot unenroll from a completed course")
		}
		if err := tx.DeleteCourseProgress(ctx, userID, courseID); err != nil {
			return err
		}
		return tx.DeleteEnrollment(ctx, userID, courseID)
	})
}

// StartLesson marks a lesson in progress. Starting a started lesson is a
// no-op reported through AlreadyStarted; starting a completed one fails
// with *domain.AlreadyCompletedError.
func (s *ProgressionService) StartLesson(ctx context.Context, userID, lessonID int64) (LessonStart, error) {
	var out LessonStart
	err := s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		lesson, err := tx.LessonWithCourse(ctx, lessonID)
		if err != nil {
			return err
		}
		if _, err := requireEnrollment(ctx, tx, userID, lesson.CourseID); err != nil {
			return err
		}

		existing, err := tx.LessonProgress(ctx, userID, lessonID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case domain.LessonCompleted:
				return alreadyCompleted(*existing)
			case domain.LessonInProgress:
				out = LessonStart{Progress: *existing, AlreadyStarted: true}
				return nil
			}
		}

		progress, err := tx.StartLesson(ctx, userID, lessonID, s.now())
		if err != nil {
			return err
		}
		if progress.Status == domain.LessonCompleted {
			return alreadyCompleted(progress)
		}
		out = LessonStart{Progress: progress}
		return nil
	})
	return out, err
}

// CompleteLesson runs the finish-lesson flow: mark completed, grant lesson
// XP, recompute the enrollment, and on 100% grant the course reward and the
// course badge. All of it commits together or not at all.
func (s *ProgressionService) CompleteLesson(ctx context.Context, userID, lessonID int64) (LessonCompletion, error) {
	var out LessonCompletion
	err := s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		out = LessonCompletion{}
		now := s.now()

		lesson, err := tx.LessonWithCourse(ctx, lessonID)
		if err != nil {
			return err
		}
		enrollment, err := requireEnrollment(ctx, tx, userID, lesson.CourseID)
		if err != nil {
			return err
		}

		existing, err := tx.LessonProgress(ctx, userID, lessonID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == domain.LessonCompleted {
			return alreadyCompleted(*existing)
		}

		// the conditional write is the real guard against a concurrent completion
		progress, applied, err := tx.CompleteLesson(ctx, userID, lessonID, now)
		if err != nil {
			return err
		}
		if !applied {
			return alreadyCompleted(progress)
		}

		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		lessonGrant, err := grantOnce(ctx, tx, userID, s.lessonXP, domain.SourceLessonCompletion, lessonID, now)
		if err != nil {
			return err
		}
		if lessonGrant != nil {
			out.XPEarned = lessonGrant.Amount
		}

		courseProgress, updated, err := recomputeCourseProgress(ctx, tx, enrollment, now)
		if err != nil {
			return err
		}
		out.Lesson = lesson
		out.Progress = courseProgress
		out.Enrollment = updated
		out.TotalXPEarned = out.XPEarned

		if courseProgress.Complete() {
			completion := &CourseCompletion{BadgesAwarded: []domain.Badge{}}
			courseGrant, err := grantOnce(ctx, tx, userID, lesson.CourseXPReward, domain.SourceCourseCompletion, lesson.CourseID, now)
			if err != nil {
				return err
			}
			if courseGrant != nil {
				completion.XPAwarded = courseGrant.Amount
				out.TotalXPEarned += courseGrant.Amount
			}
			badge, err := awardCourseBadge(ctx, tx, userID, lesson.CourseID, now)
			if err != nil {
				return err
			}
			if badge != nil {
				completion.BadgesAwarded = append(completion.BadgesAwarded, *badge)
			}
			out.CourseCompletion = completion
		}

		out.NextLesson, err = tx.NextLesson(ctx, lesson.CourseID, lesson.OrderIndex)
		return err
	})
	if err != nil {
		return LessonCompletion{}, err
	}

	if out.CourseCompleted() {
		s.log.Info("course completed",
			"user_id", userID,
			"course_id", out.Lesson.CourseID,
			"xp_awarded", out.CourseCompletion.XPAwarded,
			"badges", len(out.CourseCompletion.BadgesAwarded),
		)
	}
	return out, nil
}

// AwardCourseBadge grants the course badge in its own unit of work. It
// returns nil when there is nothing to award.
func (s *ProgressionService) AwardCourseBadge(ctx context.Context, userID, courseID int64) (*domain.Badge, error) {
	var badge *domain.Badge
	err := s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Course(ctx, courseID); err != nil {
			return err
		}
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		var err error
		badge, err = awardCourseBadge(ctx, tx, userID, courseID, s.now())
		return err
	})
	return badge, err
}

// SubmitQuiz grades the answers, stores the attempt, grants XP for a
// passing score and advances the daily streak.
func (s *ProgressionService) SubmitQuiz(ctx context.Context, userID, quizID int64, answers []domain.AnswerSubmission, completionTime int) (QuizSubmission, error) {
	if completionTime < 0 {
		return QuizSubmission{}, domain.InvalidInput("completion time must not be negative")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizSubmission{}, err
	}
	grading, err := domain.GradeSubmission(quiz, answers)
	if err != nil {
		return QuizSubmission{}, err
	}

	out := QuizSubmission{Quiz: quiz, Grading: grading}
	err = s.inTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		attempt := domain.QuizAttempt{
			UserID:         userID,
			QuizID:         quizID,
			Score:          grading.Score,
			TotalCorrect:   grading.TotalCorrect,
			TotalQuestions: grading.TotalQuestions,
			XPEarned:       grading.XPEarned,
			CompletionTime: completionTime,
			CreatedAt:      now,
		}
		for _, a := range grading.Answers {
			attempt.Answers = append(attempt.Answers, domain.UserAnswer{
				UserID:     userID,
				QuestionID: a.QuestionID,
				UserAnswer: a.UserAnswer,
				IsCorrect:  a.IsCorrect,
				AnsweredAt: now,
			})
		}
		out.Attempt, err = tx.CreateAttempt(ctx, attempt)
		if err != nil {
			return err
		}

		if _, err := grantXP(ctx, tx, userID, grading.XPEarned, domain.SourceQuizCompletion, quizID, now); err != nil {
			return err
		}

		today := domain.CalendarDay(now, s.loc)
		streak := domain.NextStreak(user.Streak, user.LastActive, today)
		out.Streak = streak
		return tx.UpdateUser(ctx, userID, domain.UserPatch{
			Streak:     &streak,
			LastActive: domain.SetTime(&today),
		})
	})
	if err != nil {
		return QuizSubmission{}, err
	}
	return out, nil
}

// LessonView is the read model behind the lesson progress endpoint.
type LessonView struct {
	Lesson         domain.Lesson
	Enrollment     *domain.Enrollment
	Progress       domain.LessonProgress
	CourseProgress domain.CourseProgress
	NextLesson     *domain.Lesson
}

// LessonStatus reports the user's state on one lesson and its course.
func (s *ProgressionService) LessonStatus(ctx context.Context, userID, lessonID int64) (LessonView, error) {
	var view LessonView
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		lesson, err := tx.LessonWithCourse(ctx, lessonID)
		if err != nil {
			return err
		}
		view.Lesson = lesson
		if view.Enrollment, err = tx.Enrollment(ctx, userID, lesson.CourseID); err != nil {
			return err
		}

		progress, err := tx.LessonProgress(ctx, userID, lessonID)
		if err != nil {
			return err
		}
		if progress != nil {
			view.Progress = *progress
		} else {
			view.Progress = domain.LessonProgress{UserID: userID, LessonID: lessonID, Status: domain.LessonNotStarted}
		}

		completed, err := tx.CountCompletedLessons(ctx, userID, lesson.CourseID)
		if err != nil {
			return err
		}
		total, err := tx.CountLessons(ctx, lesson.CourseID)
		if err != nil {
			return err
		}
		view.CourseProgress = domain.NewCourseProgress(completed, total)

		view.NextLesson, err = tx.NextLesson(ctx, lesson.CourseID, lesson.OrderIndex)
		return err
	})
	return view, err
}

// LessonState pairs a catalog lesson with the user's progress on it.
type LessonState struct {
	Lesson   domain.Lesson
	Progress domain.LessonProgress
}

// CourseReport is the read model behind the course progress endpoint.
type CourseReport struct {
	Course     domain.Course
	Enrollment domain.Enrollment
	Lessons    []LessonState
	Completed  int
	InProgress int
	NotStarted int
	Percentage int
	LessonXP   int64
	CourseXP   int64
}

// TotalXP is the XP the course has yielded so far, badge rewards excluded.
func (r CourseReport) TotalXP() int64 { return r.LessonXP + r.CourseXP }

// CourseReport summarizes an enrolled course lesson by lesson, with the XP
// it has yielded according to the ledger.
func (s *ProgressionService) CourseReport(ctx context.Context, userID, courseID int64) (CourseReport, error) {
	var report CourseReport
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		course, err := tx.Course(ctx, courseID)
		if err != nil {
			return err
		}
		enrollment, err := requireEnrollment(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		lessons, err := tx.CourseLessons(ctx, courseID)
		if err != nil {
			return err
		}
		rows, err := tx.CourseLessonProgress(ctx, userID, courseID)
		if err != nil {
			return err
		}

		byLesson := make(map[int64]domain.LessonProgress, len(rows))
		for _, p := range rows {
			byLesson[p.LessonID] = p
		}

		report = CourseReport{Course: course, Enrollment: enrollment, Lessons: make([]LessonState, 0, len(lessons))}
		lessonIDs := make([]int64, 0, len(lessons))
		for _, l := range lessons {
			lessonIDs = append(lessonIDs, l.ID)
			p, ok := byLesson[l.ID]
			if !ok {
				p = domain.LessonProgress{UserID: userID, LessonID: l.ID, Status: domain.LessonNotStarted}
			}
			switch p.Status {
			case domain.LessonCompleted:
				report.Completed++
			case domain.LessonInProgress:
				report.InProgress++
			default:
				report.NotStarted++
			}
			report.Lessons = append(report.Lessons, LessonState{Lesson: l, Progress: p})
		}
		report.Percentage = domain.CoursePercentage(report.Completed, len(lessons))

		if report.LessonXP, err = tx.SumXP(ctx, userID, domain.SourceLessonCompletion, lessonIDs); err != nil {
			return err
		}
		report.CourseXP, err = tx.SumXP(ctx, userID, domain.SourceCourseCompletion, []int64{courseID})
		return err
	})
	return report, err
}

// AttemptHistory is one page of a user's attempts on a quiz.
type AttemptHistory struct {
	Quiz     domain.Quiz
	Attempts []domain.QuizAttempt
	Best     *domain.QuizAttempt
	Total    int
	Page     int
	Limit    int
}

// QuizAttempts lists the user's attempts on a quiz, newest first.
func (s *ProgressionService) QuizAttempts(ctx context.Context, userID, quizID int64, page, limit int) (AttemptHistory, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptHistory{}, err
	}

	history := AttemptHistory{Quiz: quiz, Page: page, Limit: limit}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		history.Attempts, history.Total, err = tx.Attempts(ctx, userID, quizID, limit, (page-1)*limit)
		if err != nil {
			return err
		}
		history.Best, err = tx.BestAttempt(ctx, userID, quizID)
		return err
	})
	return history, err
}
