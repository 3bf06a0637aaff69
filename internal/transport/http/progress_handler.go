package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/app"
)

// ProgressHandler serves the lesson and course progress read models.
type ProgressHandler struct {
	responder
	service *app.ProgressionService
}

func NewProgressHandler(service *app.ProgressionService, r responder) *ProgressHandler {
	return &ProgressHandler{responder: r, service: service}
}

func (h *ProgressHandler) LessonProgress(c *gin.Context) {
	lessonID, ok := pathID(c, "lesson_id")
	if !ok {
		return
	}
	view, err := h.service.LessonStatus(c.Request.Context(), mustUserID(c), lessonID)
	if err != nil {
		h.failRead(c, err, "Failed to get lesson progress")
		return
	}

	var enrollment interface{}
	if view.Enrollment != nil {
		enrollment = gin.H{
			"status":    view.Enrollment.Status,
			"progress":  view.Enrollment.PercentProgress,
			"startedAt": view.Enrollment.StartedAt,
		}
	}
	respondOK(c, http.StatusOK, "Lesson progress retrieved successfully", gin.H{
		"lesson": gin.H{
			"id":          view.Lesson.ID,
			"title":       view.Lesson.Title,
			"orderIndex":  view.Lesson.OrderIndex,
			"courseId":    view.Lesson.CourseID,
			"courseTitle": view.Lesson.CourseTitle,
		},
		"enrollment": enrollment,
		"progress": gin.H{
			"status":      view.Progress.Status,
			"startedAt":   view.Progress.StartedAt,
			"completedAt": view.Progress.CompletedAt,
		},
		"courseProgress": view.CourseProgress,
		"nextLesson":     lessonRef(view.NextLesson),
	})
}

func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	report, err := h.service.CourseReport(c.Request.Context(), mustUserID(c), courseID)
	if err != nil {
		h.failRead(c, err, "Failed to get course progress")
		return
	}

	remaining := report.Course.XPReward - report.TotalXP()
	if remaining < 0 {
		remaining = 0
	}
	lessons := make([]gin.H, 0, len(report.Lessons))
	for _, l := range report.Lessons {
		lessons = append(lessons, gin.H{
			"id":          l.Lesson.ID,
			"title":       l.Lesson.Title,
			"order":       l.Lesson.OrderIndex,
			"status":      l.Progress.Status,
			"startedAt":   l.Progress.StartedAt,
			"completedAt": l.Progress.CompletedAt,
		})
	}

	respondOK(c, http.StatusOK, "Course progress retrieved successfully", gin.H{
		"course": gin.H{
			"id":            report.Course.ID,
			"title":         report.Course.Title,
			"totalXpReward": report.Course.XPReward,
		},
		"enrollment": gin.H{
			"status":      report.Enrollment.Status,
			"progress":    report.Enrollment.PercentProgress,
			"startedAt":   report.Enrollment.StartedAt,
			"completedAt": report.Enrollment.CompletedAt,
		},
		"statistics": gin.H{
			"lessons": gin.H{
				"total":          len(report.Lessons),
				"completed":      report.Completed,
				"inProgress":     report.InProgress,
				"notStarted":     report.NotStarted,
				"completionRate": report.Percentage,
			},
			"xp": gin.H{
				"earned":      report.TotalXP(),
				"fromLessons": report.LessonXP,
				"fromCourse":  report.CourseXP,
				"remaining":   remaining,
			},
		},
		"lessons": lessons,
	})
}
