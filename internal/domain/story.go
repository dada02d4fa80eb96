package domain

import "time"

// Story represents a serialized work in the catalog.
// Published, Updated, and Removed are calendar dates, not timestamps.
// A non-nil Removed soft-deletes the story from every public listing.
type Story struct {
	Record
	Title     string      `json:"title"`
	SortTitle string      `json:"sort_title"` // derived from Title when left empty
	Slug      string      `json:"slug"`       // unique across stories
	Synopsis  string      `json:"synopsis,omitempty"`
	SlantID   string      `json:"slant_id,omitempty"`
	SourceID  string      `json:"source_id,omitempty"`
	Published *time.Time  `json:"published,omitempty"`
	Updated   *time.Time  `json:"updated,omitempty"`
	Removed   *time.Time  `json:"removed,omitempty"`
	Authors   []AuthorRef `json:"authors,omitempty"`
	CodeAbbrs []string    `json:"code_abbrs,omitempty"`
}

// IsRemoved returns true if this story has been soft-removed from the catalog.
func (s *Story) IsRemoved() bool {
	return s.Removed != nil
}
