package domain

import (
	"html"
	"strings"
	"unicode/utf8"

	apperrors "github.com/debjit15/angrybolly/pkg/errors"
)

// Field constraints for submitted reviews.
const (
	MinNameRunes = 2
	MinTextRunes = 10
	MaxTextRunes = 500
	MinRating    = 1
	MaxRating    = 5
)

// Submission holds the client-supplied review fields before normalization.
type Submission struct {
	Name   string
	Email  string
	Rating int
	Text   string
}

// Normalize trims the free-text fields, checks the field constraints, and
// HTML-escapes name and text for safe at-rest storage. Lengths are measured
// in runes on the trimmed, unescaped values. Email grammar is checked by the
// caller's request validation; Normalize only trims it. Pure: no side
// effects.
func (s Submission) Normalize() (Submission, error) {
	name := strings.TrimSpace(s.Name)
	text := strings.TrimSpace(s.Text)

	if utf8.RuneCountInString(name) < MinNameRunes {
		return Submission{}, apperrors.InvalidInput("name must be at least 2 characters")
	}
	if s.Rating < MinRating || s.Rating > MaxRating {
		return Submission{}, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if n := utf8.RuneCountInString(text); n < MinTextRunes || n > MaxTextRunes {
		return Submission{}, apperrors.InvalidInput("review must be between 10 and 500 characters")
	}

	return Submission{
		Name:   html.EscapeString(name),
		Email:  strings.TrimSpace(s.Email),
		Rating: s.Rating,
		Text:   html.EscapeString(text),
	}, nil
}
