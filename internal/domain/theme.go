package domain

// Theme is a named CSS payload for site styling. At most one theme is
// active at a time; activation deactivates every other theme.
type Theme struct {
	Record
	Name   string `json:"name"`
	CSS    string `json:"css"`
	Active bool   `json:"active"`
}
