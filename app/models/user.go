package models

import "time"

// UserRole distinguishes the two login surfaces.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleHOD     UserRole = "hod"
)

// Teacher is a faculty account. Password carries the bcrypt hash and is
// never serialized.
type Teacher struct {
	ID        string    `json:"id"`
	FacultyID string    `json:"faculty_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"-"`
	Subjects  []string  `json:"subjects,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HOD is a department-head account.
type HOD struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Password   string    `json:"-"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}
