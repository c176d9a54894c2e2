package models

import (
	"time"
)

// MinPublishedYear is the oldest publication year the catalog accepts. The
// upper bound is always the current calendar year.
const MinPublishedYear = 1800

const (
	GenreFiction    = "Fiction"
	GenreNonFiction = "Non-Fiction"
	GenreScience    = "Science"
	GenreHistory    = "History"
)

var genres = []string{GenreFiction, GenreNonFiction, GenreScience, GenreHistory}

// Genres returns the fixed set of accepted genres.
func Genres() []string {
	out := make([]string, len(genres))
	copy(out, genres)
	return out
}

func IsValidGenre(genre string) bool {
	for _, g := range genres {
		if g == genre {
			return true
		}
	}
	return false
}

func IsValidPublishedYear(year int) bool {
	return year >= MinPublishedYear && year <= time.Now().Year()
}

// Book represents a catalog record owned by exactly one user. The owner
// reference is set at creation and never reassigned.
type Book struct {
	ID            int         `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Genre         string      `json:"genre" db:"genre"`
	PublishedYear int         `json:"published_year" db:"published_year"`
	UserID        int         `json:"-" db:"user_id"`
	Author        *PublicUser `json:"author,omitempty"`
}

// BookInput is a single parsed row from the create or bulk import payloads.
type BookInput struct {
	Title         string `json:"title"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
}
