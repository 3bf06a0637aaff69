package postgres

import (
	"context"
	"database/sql"
	"errors"

	"progression-service/internal/domain"
)

func (t *pgTx) CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	row := quizAttemptRow{
		UserID:         attempt.UserID,
		QuizID:         attempt.QuizID,
		Score:          attempt.Score,
		TotalCorrect:   attempt.TotalCorrect,
		TotalQuestions: attempt.TotalQuestions,
		XPEarned:       attempt.XPEarned,
		CompletionTime: attempt.CompletionTime,
		CreatedAt:      attempt.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.QuizAttempt{}, err
	}
	attempt.ID = row.ID

	if len(attempt.Answers) == 0 {
		return attempt, nil
	}
	answers := make([]userAnswerRow, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		attempt.Answers[i].AttemptID = row.ID
		a := attempt.Answers[i]
		answers = append(answers, userAnswerRow{
			AttemptID:  row.ID,
			UserID:     a.UserID,
			QuestionID: a.QuestionID,
			UserAnswer: a.UserAnswer,
			IsCorrect:  a.IsCorrect,
			AnsweredAt: a.AnsweredAt,
		})
	}
	if _, err := t.tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
		return domain.QuizAttempt{}, err
	}
	return attempt, nil
}

func (t *pgTx) Attempts(ctx context.Context, userID, quizID int64, limit, offset int) ([]domain.QuizAttempt, int, error) {
	var rows []quizAttemptRow
	total, err := t.tx.NewSelect().Model(&rows).
		Where("qa.user_id = ? AND qa.quiz_id = ?", userID, quizID).
		OrderExpr("qa.created_at DESC, qa.id DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, total, nil
}

func (t *pgTx) BestAttempt(ctx context.Context, userID, quizID int64) (*domain.QuizAttempt, error) {
	var row quizAttemptRow
	err := t.tx.NewSelect().Model(&row).
		Where("qa.user_id = ? AND qa.quiz_id = ?", userID, quizID).
		OrderExpr("qa.score DESC, qa.completion_time ASC, qa.created_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	best := row.toDomain()
	return &best, nil
}
