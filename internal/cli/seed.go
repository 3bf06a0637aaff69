package cli

import (
	"fmt"
	"time"

	"progression-service/internal/domain"
	"progression-service/internal/infra/memory"
)

// seedSampleData fills an in-memory store for local runs without Postgres
// and returns the quizzes for the static loader.
func seedSampleData(store *memory.Store) map[int64]domain.Quiz {
	joined := time.Now().Add(-30 * 24 * time.Hour)
	for i, name := range []string{"ada", "grace", "linus"} {
		store.AddUser(domain.User{
			ID:        int64(i + 1),
			Username:  name,
			Email:     name + "@example.com",
			CreatedAt: joined.Add(time.Duration(i) * time.Hour),
		})
	}

	levels := make([]domain.LevelThreshold, 0, 10)
	for n := int64(1); n <= 10; n++ {
		levels = append(levels, domain.LevelThreshold{Level: int(n), XPRequired: 100 * (n - 1) * n / 2})
	}
	store.SetLevels(levels...)

	store.AddCourse(domain.Course{ID: 1, Title: "English for Beginners", XPReward: 100})
	for i, title := range []string{"Greetings", "Numbers", "Daily routines"} {
		store.AddLesson(domain.Lesson{ID: int64(101 + i), CourseID: 1, Title: title, OrderIndex: i + 1})
	}
	store.AddBadge(domain.Badge{
		ID:          1,
		CourseID:    1,
		Name:        "First Steps",
		Description: "Completed English for Beginners",
		XPReward:    50,
	})

	quiz := domain.Quiz{ID: 1, Title: "Numbers check", XPReward: 50}
	for i := 1; i <= 5; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            int64(i),
			QuizID:        1,
			Prompt:        fmt.Sprintf("What is %d + %d?", i, i),
			Options:       []string{fmt.Sprint(2 * i), fmt.Sprint(2*i + 1)},
			CorrectAnswer: fmt.Sprint(2 * i),
			Order:         i,
		})
	}
	return map[int64]domain.Quiz{quiz.ID: quiz}
}
