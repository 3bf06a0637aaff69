package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/domain"
	"progression-service/internal/logger"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// responder turns domain errors into HTTP responses. In development mode the
// raw error of a 5xx is echoed back.
type responder struct {
	development bool
	log         *logger.Logger
}

// fail maps err for a mutating endpoint; NotEnrolled is a 403 there.
func (r responder) fail(c *gin.Context, err error, fallback string) {
	r.write(c, err, fallback, http.StatusForbidden)
}

// failRead maps err for a read endpoint; NotEnrolled is a 404 there.
func (r responder) failRead(c *gin.Context, err error, fallback string) {
	r.write(c, err, fallback, http.StatusNotFound)
}

func (r responder) write(c *gin.Context, err error, fallback string, notEnrolledStatus int) {
	var completed *domain.AlreadyCompletedError
	var enrolled *domain.AlreadyEnrolledError

	switch {
	case errors.As(err, &completed):
		c.JSON(http.StatusConflict, envelope{
			Message: "Lesson already completed",
			Data: gin.H{
				"lessonId":    completed.LessonID,
				"startedAt":   completed.StartedAt,
				"completedAt": completed.CompletedAt,
			},
		})
	case errors.As(err, &enrolled):
		c.JSON(http.StatusConflict, envelope{
			Message: "Already enrolled in this course",
			Data: gin.H{
				"status":     enrolled.Enrollment.Status,
				"enrolledAt": enrolled.Enrollment.StartedAt,
			},
		})
	case errors.Is(err, domain.ErrNotEnrolled):
		c.JSON(notEnrolledStatus, envelope{Message: "You are not enrolled in this course"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, envelope{Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, envelope{Message: "Resource already exists"})
	default:
		if r.log != nil {
			r.log.Error(fallback, "error", err, "path", c.FullPath())
		}
		body := envelope{Message: fallback}
		if r.development {
			body.Error = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Message: message})
}
