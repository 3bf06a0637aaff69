package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a referenced lesson, course, quiz or user is absent.
	ErrNotFound = errors.New("not found")
	// ErrNotEnrolled is returned when progression is attempted without an enrollment.
	ErrNotEnrolled = errors.New("not enrolled in this course")
	// ErrAlreadyCompleted marks a repeated terminal transition.
	ErrAlreadyCompleted = errors.New("lesson already completed")
	// ErrAlreadyEnrolled is returned when enrolling twice in the same course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrConflict surfaces uniqueness violations from the store.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput covers malformed submissions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreFailure wraps connection and transaction failures. Nothing was applied.
	ErrStoreFailure = errors.New("store failure")
)

// AlreadyCompletedError echoes the first completion back to the caller.
type AlreadyCompletedError struct {
	LessonID    int64
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("lesson %d already completed", e.LessonID)
}

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// AlreadyEnrolledError carries the existing enrollment.
type AlreadyEnrolledError struct {
	Enrollment Enrollment
}

func (e *AlreadyEnrolledError) Error() string {
	return fmt.Sprintf("already enrolled in course %d", e.Enrollment.CourseID)
}

func (e *AlreadyEnrolledError) Is(target error) bool { return target == ErrAlreadyEnrolled }

// NotFound wraps ErrNotFound with the missing resource name, e.g. NotFound("Lesson").
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidInput wraps ErrInvalidInput with a client-facing message.
func InvalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
