package domain

// Author represents a credited writer.
type Author struct {
	Record
	Name string `json:"name"`
	Slug string `json:"slug"` // derived from Name when left empty; unique ignoring case
}

// AuthorRef is the lightweight name+slug pair carried on stories and
// installments for display.
type AuthorRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
