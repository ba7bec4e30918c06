package models

import (
	"time"
	"unicode/utf8"
)

// Note is a user-owned text note.
type Note struct {
	// ID is the unique identifier for the note.
	ID string `json:"id"`
	// Title is optional, at most 100 characters.
	Title string `json:"title"`
	// Slug is derived from Title.
	Slug string `json:"slug"`
	// Body is the free-text content.
	Body string `json:"noteBody"`
	// Length is the number of characters in Body.
	Length int `json:"noteLength"`
	// Photo is the stored photo filename, if any.
	Photo string `json:"photo,omitempty"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"dateCreated"`
	// UserID references the owning user.
	UserID string `json:"user"`
}

// Derive recomputes Slug and Length from Title and Body.
func (n *Note) Derive() {
	n.Slug = Slugify(n.Title)
	n.Length = utf8.RuneCountInString(n.Body)
}

// OwnedBy reports whether userID owns the note.
func (n *Note) OwnedBy(userID string) bool {
	return n.UserID == userID
}
