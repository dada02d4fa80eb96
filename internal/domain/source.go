package domain

// Source is an external archive a story was collected from.
type Source struct {
	Record
	Name    string `json:"name"`
	Abbr    string `json:"abbr,omitempty"`
	Website string `json:"website,omitempty"`
}
