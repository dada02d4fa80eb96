package domain

import "time"

// LengthUnit is the unit an installment's length is measured in.
type LengthUnit string

const (
	UnitWords LengthUnit = "words"
	UnitChars LengthUnit = "chars"
)

// String returns the string representation of the unit.
func (u LengthUnit) String() string {
	return string(u)
}

// IsValid checks if the unit is a recognized value.
func (u LengthUnit) IsValid() bool {
	switch u {
	case UnitWords, UnitChars:
		return true
	default:
		return false
	}
}

// Installment represents one dated revision of one ordinal of a story.
// Several rows may share (story, ordinal); exactly one of them is current.
// (story, ordinal, published) is unique.
type Installment struct {
	Record
	StoryID    string      `json:"story_id"`
	Ordinal    int         `json:"ordinal"` // 1-based position within the story
	IsCurrent  bool        `json:"is_current"`
	Title      string      `json:"title,omitempty"`
	Published  time.Time   `json:"published"` // calendar date of this revision
	Length     int         `json:"length,omitempty"`
	LengthUnit LengthUnit  `json:"length_unit,omitempty"`
	FilePath   string      `json:"file_path"` // body location under the content root
	Checksum   string      `json:"checksum,omitempty"`
	Authors    []AuthorRef `json:"authors,omitempty"`
}

// HasBody returns true if a body file has been stored for this revision.
// A current row with no body marks the ordinal as known but missing.
func (i *Installment) HasBody() bool {
	return i.Checksum != ""
}
