package domain

import "time"

// Section identifies a content category. Each category carries a minimum-tier
// floor supplied by configuration, so new categories do not require code changes.
type Section string

const (
	SectionDaily     Section = "daily"
	SectionCognitive Section = "cognitive"
	SectionBusiness  Section = "business"
)

// Lesson represents a video lesson stored in the content database. The content
// database is an external collaborator and is consumed read-only.
type Lesson struct {
	ID          string
	Title       string
	Section     Section
	Sample      bool
	VideoURL    string
	DurationSec int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
