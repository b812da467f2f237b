package database

import (
	"database/sql"

	"github.com/lib/pq"

	"smart-attendance/app/models"
)

// CreateTeacher registers a faculty account. Password must already be
// hashed by the caller.
func CreateTeacher(db *sql.DB, teacher *models.Teacher) error {
	query := `INSERT INTO teachers (faculty_id, name, email, password, subjects)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`

	return db.QueryRow(query, teacher.FacultyID, teacher.Name, teacher.Email,
		teacher.Password, pq.Array(teacher.Subjects)).
		Scan(&teacher.ID, &teacher.CreatedAt)
}

// GetTeacherByEmail returns a teacher account including its password hash.
func GetTeacherByEmail(db *sql.DB, email string) (*models.Teacher, error) {
	query := `SELECT id, faculty_id, name, email, password, subjects, created_at
			  FROM teachers WHERE email = $1`

	teacher := &models.Teacher{}
	err := db.QueryRow(query, email).Scan(
		&teacher.ID, &teacher.FacultyID, &teacher.Name, &teacher.Email,
		&teacher.Password, pq.Array(&teacher.Subjects), &teacher.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

// GetTeacherByFacultyID returns a teacher account by its faculty id.
func GetTeacherByFacultyID(db *sql.DB, facultyID string) (*models.Teacher, error) {
	query := `SELECT id, faculty_id, name, email, password, subjects, created_at
			  FROM teachers WHERE faculty_id = $1`

	teacher := &models.Teacher{}
	err := db.QueryRow(query, facultyID).Scan(
		&teacher.ID, &teacher.FacultyID, &teacher.Name, &teacher.Email,
		&teacher.Password, pq.Array(&teacher.Subjects), &teacher.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

// CreateHOD registers a department-head account.
func CreateHOD(db *sql.DB, hod *models.HOD) error {
	query := `INSERT INTO hods (name, email, password, department)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`

	return db.QueryRow(query, hod.Name, hod.Email, hod.Password, hod.Department).
		Scan(&hod.ID, &hod.CreatedAt)
}

// GetHODByEmail returns an HOD account including its password hash.
func GetHODByEmail(db *sql.DB, email string) (*models.HOD, error) {
	query := `SELECT id, name, email, password, department, created_at
			  FROM hods WHERE email = $1`

	hod := &models.HOD{}
	err := db.QueryRow(query, email).Scan(
		&hod.ID, &hod.Name, &hod.Email, &hod.Password, &hod.Department, &hod.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return hod, nil
}
