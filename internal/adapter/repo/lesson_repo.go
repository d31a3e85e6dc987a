package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// LessonRepositoryPG implements domain.LessonRepository backed by the content
// database. All access is read-only; lessons are published by an external
// flow.
type LessonRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepositoryPG.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepositoryPG {
	return &LessonRepositoryPG{pool: pool}
}

const lessonColumns = `id, title, section, sample, video_url, duration_seconds, created_at, updated_at`

// GetByID fetches a lesson by identifier.
func (r *LessonRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Lesson, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	lesson, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: lesson %q", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}

// ListBySection fetches the newest lessons in a category.
func (r *LessonRepositoryPG) ListBySection(ctx context.Context, section domain.Section, limit int) ([]domain.Lesson, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE section = $1 ORDER BY created_at DESC LIMIT $2`, section, limit)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("list lessons: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

func scanLesson(row pgx.Row) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Section,
		&lesson.Sample,
		&lesson.VideoURL,
		&lesson.DurationSec,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}
