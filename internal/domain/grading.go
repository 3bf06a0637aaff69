package domain

import (
	"fmt"
	"math"
)

// PassingScore is the minimum score that counts as a pass.
const PassingScore = 60

// GradedAnswer is one answer checked against the key.
type GradedAnswer struct {
	QuestionID    int64  `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// Grading is the deterministic result of scoring one submission.
type Grading struct {
	Answers        []GradedAnswer
	TotalCorrect   int
	TotalQuestions int
	Score          int
	XPEarned       int64
}

// Passed reports whether the score reaches PassingScore.
func (g Grading) Passed() bool { return g.Score >= PassingScore }

// ResultDetail is the review line for one quiz question. UserAnswer is nil
// when the question was left unanswered.
type ResultDetail struct {
	QuestionID    int64    `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    *string  `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Explanation   string   `json:"explanation"`
}

// GradeSubmission scores answers against the quiz answer key. Unanswered
// questions count as incorrect, so an empty submission scores 0. An answer for
// a question outside the quiz, or two answers for the same question, rejects
// the whole submission.
func GradeSubmission(quiz Quiz, answers []AnswerSubmission) (Grading, error) {
	key := make(map[int64]Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		key[q.ID] = q
	}

	seen := make(map[int64]struct{}, len(answers))
	graded := make([]GradedAnswer, 0, len(answers))
	correct := 0
	for _, a := range answers {
		q, ok := key[a.QuestionID]
		if !ok {
			return Grading{}, InvalidInput(fmt.Sprintf("invalid questions ID %d", a.QuestionID))
		}
		if _, dup := seen[a.QuestionID]; dup {
			return Grading{}, InvalidInput(fmt.Sprintf("duplicate answer for question %d", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}

		isCorrect := q.CorrectAnswer == a.UserAnswer
		if isCorrect {
			correct++
		}
		graded = append(graded, GradedAnswer{
			QuestionID:    a.QuestionID,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
		})
	}

	total := quiz.QuestionCount()
	score := ScoreFor(correct, total)
	return Grading{
		Answers:        graded,
		TotalCorrect:   correct,
		TotalQuestions: total,
		Score:          score,
		XPEarned:       XPForScore(score, quiz.XPReward),
	}, nil
}

// ResultDetails lists every quiz question in order with the submitted answer
// and its explanation.
func ResultDetails(quiz Quiz, g Grading) []ResultDetail {
	byQuestion := make(map[int64]GradedAnswer, len(g.Answers))
	for _, a := range g.Answers {
		byQuestion[a.QuestionID] = a
	}

	details := make([]ResultDetail, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		d := ResultDetail{
			QuestionID:    q.ID,
			Question:      q.Prompt,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if a, ok := byQuestion[q.ID]; ok {
			answer := a.UserAnswer
			d.UserAnswer = &answer
			d.IsCorrect = a.IsCorrect
		}
		details = append(details, d)
	}
	return details
}

// ScoreFor returns round(correct/total*100) clamped to 0..100.
func ScoreFor(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	score := int(math.Round(float64(correct) / float64(total) * 100))
	if score > 100 {
		return 100
	}
	return score
}

// XPForScore applies the reward tiers to the quiz's maximum reward.
func XPForScore(score int, maxReward int64) int64 {
	var factor float64
	switch {
	case score >= 90:
		factor = 1
	case score >= 80:
		factor = 0.8
	case score >= 70:
		factor = 0.6
	case score >= 60:
		factor = 0.4
	default:
		return 0
	}
	return int64(math.Round(float64(maxReward) * factor))
}

// GradeForScore returns the letter grade.
func GradeForScore(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// PerformanceMessage is the user-facing summary for a score.
func PerformanceMessage(score int) string {
	switch {
	case score >= 90:
		return "Excellent! Perfect understanding!"
	case score >= 80:
		return "Great job! Solid understanding!"
	case score >= 70:
		return "Good work! Room for improvement."
	case score >= 60:
		return "You passed! Review the material."
	default:
		return "Keep practicing! Review and try again."
	}
}
