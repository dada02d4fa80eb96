package domain

import "time"

// List is a reader-owned reading list. Names are unique per owner.
// Color is any valid CSS color and drives the list's badge styling.
type List struct {
	Record
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Priority int    `json:"priority"`
	AutoSort bool   `json:"auto_sort"`
}

// ListEntry links a story into a list. (list, story) is unique.
type ListEntry struct {
	ID      string    `json:"id"`
	ListID  string    `json:"list_id"`
	StoryID string    `json:"story_id"`
	AddedAt time.Time `json:"added_at"`
}
