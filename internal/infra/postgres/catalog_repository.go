package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"progression-service/internal/domain"
)

func (t *pgTx) Course(ctx context.Context, courseID int64) (domain.Course, error) {
	var row courseRow
	if err := t.tx.NewSelect().Model(&row).Where("c.id = ?", courseID).Scan(ctx); err != nil {
		return domain.Course{}, notFound(err, "Course")
	}
	return row.toDomain(), nil
}

func (t *pgTx) selectLessons(rows interface{}) *bun.SelectQuery {
	return t.tx.NewSelect().
		Model(rows).
		ColumnExpr("l.id, l.course_id, l.title, l.order_index").
		ColumnExpr("c.title AS course_title, c.xp_reward AS course_xp_reward").
		Join("JOIN courses AS c ON c.id = l.course_id")
}

func (t *pgTx) LessonWithCourse(ctx context.Context, lessonID int64) (domain.Lesson, error) {
	var row lessonRow
	if err := t.selectLessons(&row).Where("l.id = ?", lessonID).Scan(ctx); err != nil {
		return domain.Lesson{}, notFound(err, "Lesson")
	}
	return row.toDomain(), nil
}

func (t *pgTx) CourseLessons(ctx context.Context, courseID int64) ([]domain.Lesson, error) {
	var rows []lessonRow
	err := t.selectLessons(&rows).
		Where("l.course_id = ?", courseID).
		OrderExpr("l.order_index ASC, l.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Lesson, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *pgTx) NextLesson(ctx context.Context, courseID int64, afterOrder int) (*domain.Lesson, error) {
	var row lessonRow
	err := t.selectLessons(&row).
		Where("l.course_id = ?", courseID).
		Where("l.order_index > ?", afterOrder).
		OrderExpr("l.order_index ASC, l.id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lesson := row.toDomain()
	return &lesson, nil
}

func (t *pgTx) CountLessons(ctx context.Context, courseID int64) (int, error) {
	return t.tx.NewSelect().Model((*lessonRow)(nil)).Where("l.course_id = ?", courseID).Count(ctx)
}

func (t *pgTx) BadgeForCourse(ctx context.Context, courseID int64) (*domain.Badge, error) {
	var row badgeRow
	err := t.tx.NewSelect().Model(&row).Where("b.course_id = ?", courseID).OrderExpr("b.id ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	badge := row.toDomain()
	return &badge, nil
}
