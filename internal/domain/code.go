package domain

import "time"

// Code is a short classification marker applied to stories.
// The abbreviation is the primary key, four characters at most.
type Code struct {
	Abbr      string    `json:"abbr"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Slant is an ordered editorial grouping of stories.
// An optional affinity code links the slant to the code taxonomy.
type Slant struct {
	Record
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
	CodeAbbr     string `json:"code_abbr,omitempty"`
}
