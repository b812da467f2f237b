package database

import (
	"database/sql"

	"smart-attendance/app/models"
)

// CreateStudent registers a student in the roster.
func CreateStudent(db *sql.DB, student *models.Student) error {
	query := `INSERT INTO students (roll_no, name, section, branch, year)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`

	return db.QueryRow(query, student.RollNo, student.Name, student.Section, student.Branch, student.Year).
		Scan(&student.ID, &student.CreatedAt)
}

// GetStudentsBySection returns the roster for a section ordered by roll
// number. This is fetched once per section when a live session opens.
func GetStudentsBySection(db *sql.DB, section string) ([]models.Student, error) {
	query := `SELECT id, roll_no, name, section, branch, year, created_at
			  FROM students
			  WHERE section = $1
			  ORDER BY roll_no`

	rows, err := db.Query(query, section)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Name, &s.Section, &s.Branch, &s.Year, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudentsByBranchAndSection narrows a section roster to one branch,
// used by the HOD drill-down.
func GetStudentsByBranchAndSection(db *sql.DB, branch, section string) ([]models.Student, error) {
	query := `SELECT id, roll_no, name, section, branch, year, created_at
			  FROM students
			  WHERE branch = $1 AND section = $2
			  ORDER BY roll_no`

	rows, err := db.Query(query, branch, section)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Name, &s.Section, &s.Branch, &s.Year, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetBranches lists the distinct branches present in the roster.
func GetBranches(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT branch FROM students WHERE branch <> '' ORDER BY branch`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetSectionsByBranch lists the sections belonging to a branch.
func GetSectionsByBranch(db *sql.DB, branch string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT section FROM students WHERE branch = $1 ORDER BY section`, branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}
