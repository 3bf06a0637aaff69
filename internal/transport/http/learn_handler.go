package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

// LearnHandler exposes enrollment and lesson transitions.
type LearnHandler struct {
	responder
	service *app.ProgressionService
}

func NewLearnHandler(service *app.ProgressionService, r responder) *LearnHandler {
	return &LearnHandler{responder: r, service: service}
}

func (h *LearnHandler) Enroll(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), mustUserID(c), courseID)
	if err != nil {
		h.fail(c, err, "Failed to enroll in course")
		return
	}
	respondOK(c, http.StatusCreated, "Enrolled in course successfully", gin.H{"enrollment": enrollment})
}

func (h *LearnHandler) Unenroll(c *gin.Context) {
	courseID, ok := pathID(c, "course_id")
	if !ok {
		return
	}
	if err := h.service.Unenroll(c.Request.Context(), mustUserID(c), courseID); err != nil {
		h.fail(c, err, "Failed to unenroll from course")
		return
	}
	respondOK(c, http.StatusOK, "Unenrolled from course successfully", gin.H{"courseId": courseID})
}

func (h *LearnHandler) StartLesson(c *gin.Context) {
	lessonID, ok := pathID(c, "lesson_id")
	if !ok {
		return
	}
	out, err := h.service.StartLesson(c.Request.Context(), mustUserID(c), lessonID)
	if err != nil {
		h.fail(c, err, "Failed to start lesson")
		return
	}
	message := "Lesson started successfully"
	if out.AlreadyStarted {
		message = "Lesson already in progress"
	}
	respondOK(c, http.StatusOK, message, gin.H{
		"lessonId":  lessonID,
		"status":    out.Progress.Status,
		"startedAt": out.Progress.StartedAt,
	})
}

func (h *LearnHandler) CompleteLesson(c *gin.Context) {
	lessonID, ok := pathID(c, "lesson_id")
	if !ok {
		return
	}
	out, err := h.service.CompleteLesson(c.Request.Context(), mustUserID(c), lessonID)
	if err != nil {
		h.fail(c, err, "Failed to complete lesson")
		return
	}

	status := "in_progress"
	if out.CourseCompleted() {
		status = "course_completed"
	}
	data := gin.H{
		"lesson": gin.H{
			"id":          out.Lesson.ID,
			"title":       out.Lesson.Title,
			"courseId":    out.Lesson.CourseID,
			"courseTitle": out.Lesson.CourseTitle,
		},
		"progress": gin.H{
			"completedLessons": out.Progress.CompletedLessons,
			"totalLessons":     out.Progress.TotalLessons,
			"percentage":       out.Progress.Percentage,
			"status":           status,
		},
		"rewards": gin.H{
			"xpEarned":      out.XPEarned,
			"totalXpEarned": out.TotalXPEarned,
		},
		"nextLesson": lessonRef(out.NextLesson),
	}
	if out.CourseCompleted() {
		badges := make([]gin.H, 0, len(out.CourseCompletion.BadgesAwarded))
		for _, b := range out.CourseCompletion.BadgesAwarded {
			badges = append(badges, gin.H{"id": b.ID, "name": b.Name, "iconUrl": b.IconURL, "xpReward": b.XPReward})
		}
		data["courseCompletion"] = gin.H{
			"courseCompleted": true,
			"xpAwarded":       out.CourseCompletion.XPAwarded,
			"badgesAwarded":   badges,
		}
	}
	respondOK(c, http.StatusOK, "Lesson completed successfully", data)
}

func lessonRef(l *domain.Lesson) interface{} {
	if l == nil {
		return nil
	}
	return gin.H{"id": l.ID, "title": l.Title, "orderIndex": l.OrderIndex}
}
