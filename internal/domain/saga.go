package domain

import "time"

// Saga is an ordered sequence of related stories. Its primary key is an
// opaque 8-character short id minted at creation.
type Saga struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortName  string    `json:"sort_name"` // derived from Name when left empty
	Synopsis  string    `json:"synopsis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SagaEntry places a story at an explicit position in a saga.
// (saga, story) is unique; Order carries the reading sequence.
type SagaEntry struct {
	ID      string `json:"id"`
	SagaID  string `json:"saga_id"`
	StoryID string `json:"story_id"`
	Order   int    `json:"order"`
}
