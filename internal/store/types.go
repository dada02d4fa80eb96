package store

import (
	"time"

	"github.com/storykeep/storykeep-server/internal/domain"
)

// InstallmentStats summarizes the current installment rows of one story.
type InstallmentStats struct {
	// InstallmentCount is the number of current rows with a stored body.
	// A placeholder row with no body counts toward MissingCount only.
	InstallmentCount int
	// MissingCount is the number of current rows with no stored body.
	MissingCount int
	// FirstPublished and LastPublished are the lowest and highest ordinal
	// among current rows that have a body. Zero when no body is present.
	FirstPublished int
	LastPublished  int
}

// InstallmentDateRange reports the publish-date span of one ordinal across
// every historical revision.
type InstallmentDateRange struct {
	Ordinal int
	First   time.Time
	// Last is nil when the ordinal was only ever published once
	// (max date equals min date).
	Last *time.Time
}

// OrdinalNeighbors carries the previous and next readable ordinal around a
// given position. Nil means no neighbor on that side.
type OrdinalNeighbors struct {
	Prev *int
	Next *int
}

// SagaPlacement locates a story within a saga's reading order.
type SagaPlacement struct {
	// Index is the 1-based position of the story in the saga.
	Index int
	Total int
	// Prev and Next are the neighboring entries, nil at the boundaries.
	Prev *domain.SagaEntry
	Next *domain.SagaEntry
}

// LetterBucket is one entry of the letter index: an initial and the number
// of listed stories whose sort title starts with it.
type LetterBucket struct {
	Letter string
	Count  int
}

// StoryDebut annotates a story with the number of ordinals that first
// appeared on a given date. Zero means the date only revised existing
// installments.
type StoryDebut struct {
	Story       *domain.Story
	NewOrdinals int
}

// UpdateDay groups the stories touched on one publication date.
type UpdateDay struct {
	Date    time.Time
	Stories []StoryDebut
}

// PublishEvent is one installment publication, partitioned by whether the
// ordinal debuted (added) or was re-published (updated).
type PublishEvent struct {
	Story   *domain.Story
	Ordinal int
	Date    time.Time
}

// WeekBucket groups a year's publish events by ISO week.
type WeekBucket struct {
	Year    int
	Week    int
	Added   []PublishEvent
	Updated []PublishEvent
}
