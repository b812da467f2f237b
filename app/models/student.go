package models

import "time"

// Student is a roster entry. RollNo is unique within a section; the roster
// for a section is fetched once when a live session opens and treated as
// immutable for the lifetime of that session.
type Student struct {
	ID        string    `json:"id"`
	RollNo    string    `json:"rollNo" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Section   string    `json:"section" validate:"required"`
	Branch    string    `json:"branch,omitempty"`
	Year      string    `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
