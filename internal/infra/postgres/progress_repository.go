package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"progression-service/internal/domain"
)

const progressColumns = `user_id, lesson_id, status, started_at, completed_at, updated_at`

// startLessonSQL only touches a row that is absent or not_started.
const startLessonSQL = `
INSERT INTO lesson_progress (user_id, lesson_id, status, started_at, updated_at)
VALUES (?, ?, 'in_progress', ?, ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE
SET status = 'in_progress',
    started_at = EXCLUDED.started_at,
    updated_at = EXCLUDED.updated_at
WHERE lesson_progress.status = 'not_started'
RETURNING ` + progressColumns

// completeLessonSQL returns no row when the lesson is already completed.
const completeLessonSQL = `
INSERT INTO lesson_progress (user_id, lesson_id, status, started_at, completed_at, updated_at)
VALUES (?, ?, 'completed', ?, ?, ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE
SET status = 'completed',
    started_at = COALESCE(lesson_progress.started_at, EXCLUDED.started_at),
    completed_at = EXCLUDED.completed_at,
    updated_at = EXCLUDED.updated_at
WHERE lesson_progress.status <> 'completed'
RETURNING ` + progressColumns

func scanProgress(row *sql.Row) (domain.LessonProgress, error) {
	var r lessonProgressRow
	err := row.Scan(&r.UserID, &r.LessonID, &r.Status, &r.StartedAt, &r.CompletedAt, &r.UpdatedAt)
	return r.toDomain(), err
}

func (t *pgTx) LessonProgress(ctx context.Context, userID, lessonID int64) (*domain.LessonProgress, error) {
	var row lessonProgressRow
	err := t.tx.NewSelect().Model(&row).
		Where("lp.user_id = ? AND lp.lesson_id = ?", userID, lessonID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

func (t *pgTx) CourseLessonProgress(ctx context.Context, userID, courseID int64) ([]domain.LessonProgress, error) {
	var rows []lessonProgressRow
	err := t.tx.NewSelect().Model(&rows).
		Join("JOIN lessons AS l ON l.id = lp.lesson_id").
		Where("lp.user_id = ? AND l.course_id = ?", userID, courseID).
		OrderExpr("lp.lesson_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LessonProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *pgTx) StartLesson(ctx context.Context, userID, lessonID int64, now time.Time) (domain.LessonProgress, error) {
	p, err := scanProgress(t.tx.QueryRowContext(ctx, startLessonSQL, userID, lessonID, now, now))
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := t.LessonProgress(ctx, userID, lessonID)
		if err != nil {
			return domain.LessonProgress{}, err
		}
		if existing == nil {
			return domain.LessonProgress{}, domain.NotFound("Lesson progress")
		}
		return *existing, nil
	}
	return p, err
}

func (t *pgTx) CompleteLesson(ctx context.Context, userID, lessonID int64, now time.Time) (domain.LessonProgress, bool, error) {
	p, err := scanProgress(t.tx.QueryRowContext(ctx, completeLessonSQL, userID, lessonID, now, now, now))
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := t.LessonProgress(ctx, userID, lessonID)
		if err != nil {
			return domain.LessonProgress{}, false, err
		}
		if existing == nil {
			return domain.LessonProgress{}, false, domain.NotFound("Lesson progress")
		}
		return *existing, false, nil
	}
	if err != nil {
		return domain.LessonProgress{}, false, err
	}
	return p, true, nil
}

func (t *pgTx) CountCompletedLessons(ctx context.Context, userID, courseID int64) (int, error) {
	return t.tx.NewSelect().Model((*lessonProgressRow)(nil)).
		Join("JOIN lessons AS l ON l.id = lp.lesson_id").
		Where("lp.user_id = ? AND l.course_id = ?", userID, courseID).
		Where("lp.status = ?", string(domain.LessonCompleted)).
		Count(ctx)
}

func (t *pgTx) DeleteCourseProgress(ctx context.Context, userID, courseID int64) error {
	_, err := t.tx.NewDelete().Model((*lessonProgressRow)(nil)).
		Where("user_id = ?", userID).
		Where("lesson_id IN (SELECT id FROM lessons WHERE course_id = ?)", courseID).
		Exec(ctx)
	return err
}
