package domain

import "context"

// LessonRepository defines read-only access to the content database.
type LessonRepository interface {
	GetByID(ctx context.Context, id string) (*Lesson, error)
	ListBySection(ctx context.Context, section Section, limit int) ([]Lesson, error)
}
