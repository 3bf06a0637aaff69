package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenQuestionQuiz() Quiz {
	questions := make([]Question, 10)
	for i := range questions {
		questions[i] = Question{ID: int64(i + 1), QuizID: 7, CorrectAnswer: "a", Order: i + 1}
	}
	return Quiz{ID: 7, Title: "Basics", XPReward: 50, Questions: questions}
}

func answersWithCorrect(n int) []AnswerSubmission {
	answers := make([]AnswerSubmission, 0, 10)
	for i := 1; i <= 10; i++ {
		ans := "b"
		if i <= n {
			ans = "a"
		}
		answers = append(answers, AnswerSubmission{QuestionID: int64(i), UserAnswer: ans})
	}
	return answers
}

func TestGradeSubmissionPassingBoundary(t *testing.T) {
	g, err := GradeSubmission(tenQuestionQuiz(), answersWithCorrect(6))
	require.NoError(t, err)

	assert.Equal(t, 6, g.TotalCorrect)
	assert.Equal(t, 10, g.TotalQuestions)
	assert.Equal(t, 60, g.Score)
	assert.True(t, g.Passed())
	assert.Equal(t, "D", GradeForScore(g.Score))
	assert.Equal(t, int64(20), g.XPEarned)
}

func TestGradeSubmissionIsDeterministic(t *testing.T) {
	quiz := tenQuestionQuiz()
	answers := answersWithCorrect(8)

	first, err := GradeSubmission(quiz, answers)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GradeSubmission(quiz, answers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGradeSubmissionUnansweredCountAsIncorrect(t *testing.T) {
	quiz := tenQuestionQuiz()
	g, err := GradeSubmission(quiz, []AnswerSubmission{
		{QuestionID: 1, UserAnswer: "a"},
		{QuestionID: 2, UserAnswer: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 20, g.Score)
	assert.Equal(t, int64(0), g.XPEarned)
	assert.False(t, g.Passed())
}

func TestGradeSubmissionUsesConfiguredQuestionCount(t *testing.T) {
	quiz := tenQuestionQuiz()
	quiz.TotalQuestions = 20
	g, err := GradeSubmission(quiz, answersWithCorrect(10))
	require.NoError(t, err)
	assert.Equal(t, 20, g.TotalQuestions)
	assert.Equal(t, 50, g.Score)
}

func TestGradeSubmissionRejectsForeignQuestion(t *testing.T) {
	_, err := GradeSubmission(tenQuestionQuiz(), []AnswerSubmission{
		{QuestionID: 1, UserAnswer: "a"},
		{QuestionID: 99, UserAnswer: "a"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestGradeSubmissionRejectsDuplicateAnswers(t *testing.T) {
	_, err := GradeSubmission(tenQuestionQuiz(), []AnswerSubmission{
		{QuestionID: 1, UserAnswer: "a"},
		{QuestionID: 1, UserAnswer: "a"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGradeSubmissionEmptyAnswersScoreZero(t *testing.T) {
	for _, answers := range [][]AnswerSubmission{nil, {}} {
		g, err := GradeSubmission(tenQuestionQuiz(), answers)
		require.NoError(t, err)
		assert.Equal(t, 0, g.TotalCorrect)
		assert.Equal(t, 10, g.TotalQuestions)
		assert.Equal(t, 0, g.Score)
		assert.Equal(t, int64(0), g.XPEarned)
		assert.False(t, g.Passed())
	}
}

func TestResultDetailsCoverEveryQuestion(t *testing.T) {
	quiz := tenQuestionQuiz()
	for i := range quiz.Questions {
		quiz.Questions[i].Explanation = "because a"
	}
	g, err := GradeSubmission(quiz, []AnswerSubmission{
		{QuestionID: 1, UserAnswer: "a"},
		{QuestionID: 2, UserAnswer: "b"},
	})
	require.NoError(t, err)

	details := ResultDetails(quiz, g)
	require.Len(t, details, 10)

	require.NotNil(t, details[0].UserAnswer)
	assert.Equal(t, "a", *details[0].UserAnswer)
	assert.True(t, details[0].IsCorrect)

	require.NotNil(t, details[1].UserAnswer)
	assert.Equal(t, "b", *details[1].UserAnswer)
	assert.False(t, details[1].IsCorrect)

	for i, d := range details {
		assert.Equal(t, int64(i+1), d.QuestionID)
		assert.Equal(t, "because a", d.Explanation)
		assert.Equal(t, "a", d.CorrectAnswer)
		if i >= 2 {
			assert.Nil(t, d.UserAnswer)
			assert.False(t, d.IsCorrect)
		}
	}
}

func TestXPForScoreTiers(t *testing.T) {
	cases := []struct {
		score int
		want  int64
	}{
		{100, 50}, {90, 50}, {89, 40}, {80, 40}, {79, 30}, {70, 30}, {69, 20}, {60, 20}, {59, 0}, {0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, XPForScore(tc.score, 50), "score %d", tc.score)
	}
	// 0.8 * 33 = 26.4
	assert.Equal(t, int64(26), XPForScore(85, 33))
}

func TestGradeForScore(t *testing.T) {
	assert.Equal(t, "A", GradeForScore(95))
	assert.Equal(t, "B", GradeForScore(80))
	assert.Equal(t, "C", GradeForScore(75))
	assert.Equal(t, "D", GradeForScore(60))
	assert.Equal(t, "F", GradeForScore(59))
}
