package postgres

import (
	"context"
	"database/sql"
	"errors"

	"progression-service/internal/domain"
)

func (t *pgTx) Enrollment(ctx context.Context, userID, courseID int64) (*domain.Enrollment, error) {
	var row enrollmentRow
	err := t.tx.NewSelect().Model(&row).
		Where("ce.user_id = ? AND ce.course_id = ?", userID, courseID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e := row.toDomain()
	return &e, nil
}

func (t *pgTx) CreateEnrollment(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	row := enrollmentRow{
		UserID:          e.UserID,
		CourseID:        e.CourseID,
		Status:          string(e.Status),
		PercentProgress: e.PercentProgress,
		StartedAt:       e.StartedAt,
		CompletedAt:     e.CompletedAt,
		CreatedAt:       e.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.Enrollment{}, err
	}
	return row.toDomain(), nil
}

// UpdateEnrollment writes only the fields present in the patch.
func (t *pgTx) UpdateEnrollment(ctx context.Context, userID, courseID int64, patch domain.EnrollmentPatch) (domain.Enrollment, error) {
	if patch.Empty() {
		e, err := t.Enrollment(ctx, userID, courseID)
		if err != nil {
			return domain.Enrollment{}, err
		}
		if e == nil {
			return domain.Enrollment{}, domain.ErrNotEnrolled
		}
		return *e, nil
	}

	var row enrollmentRow
	q := t.tx.NewUpdate().Model(&row).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Returning("*")
	if patch.Status != nil {
		q = q.Set("status = ?", string(*patch.Status))
	}
	if patch.PercentProgress != nil {
		q = q.Set("percent_progress = ?", *patch.PercentProgress)
	}
	if patch.CompletedAt.Set {
		if patch.CompletedAt.Value == nil {
			q = q.Set("completed_at = NULL")
		} else {
			q = q.Set("completed_at = ?", *patch.CompletedAt.Value)
		}
	}

	res, err := q.Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	if err != nil {
		return domain.Enrollment{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	return row.toDomain(), nil
}

func (t *pgTx) DeleteEnrollment(ctx context.Context, userID, courseID int64) error {
	_, err := t.tx.NewDelete().Model((*enrollmentRow)(nil)).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Exec(ctx)
	return err
}
