package database

import (
	"database/sql"

	"smart-attendance/app/models"
)

// InsertOverrideLogs appends audit entries for a manual override. The log
// is append-only; nothing in the service updates or deletes these rows.
func InsertOverrideLogs(db *sql.DB, logs []*models.OverrideLog) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO manual_override_logs
			  (roll_no, student_name, faculty_id, faculty_name, subject, period,
			   class_name, date, original_status, updated_status, reason, timestamp)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range logs {
		if _, err := stmt.Exec(l.RollNo, l.StudentName, l.FacultyID, l.FacultyName,
			l.Subject, l.Period, l.ClassName, l.Date, l.OriginalStatus,
			l.UpdatedStatus, l.Reason, l.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetOverrideLogsByFaculty lists a faculty member's override audit entries,
// optionally filtered by date (YYYY-MM-DD) and class.
func GetOverrideLogsByFaculty(db *sql.DB, facultyID, date, className string) ([]*models.OverrideLog, error) {
	query := `SELECT id, roll_no, student_name, faculty_id, faculty_name, subject, period,
			  class_name, date, original_status, updated_status, reason, timestamp
			  FROM manual_override_logs
			  WHERE faculty_id = $1
			    AND ($2 = '' OR date = $2)
			    AND ($3 = '' OR class_name = $3)
			  ORDER BY timestamp DESC`

	return scanOverrideLogs(db.Query(query, facultyID, date, className))
}

// GetAllOverrideLogs lists every override audit entry for HOD review,
// optionally filtered by date and class.
func GetAllOverrideLogs(db *sql.DB, date, className string) ([]*models.OverrideLog, error) {
	query := `SELECT id, roll_no, student_name, faculty_id, faculty_name, subject, period,
			  class_name, date, original_status, updated_status, reason, timestamp
			  FROM manual_override_logs
			  WHERE ($1 = '' OR date = $1)
			    AND ($2 = '' OR class_name = $2)
			  ORDER BY timestamp DESC`

	return scanOverrideLogs(db.Query(query, date, className))
}

func scanOverrideLogs(rows *sql.Rows, err error) ([]*models.OverrideLog, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.OverrideLog
	for rows.Next() {
		l := &models.OverrideLog{}
		if err := rows.Scan(&l.ID, &l.RollNo, &l.StudentName, &l.FacultyID, &l.FacultyName,
			&l.Subject, &l.Period, &l.ClassName, &l.Date, &l.OriginalStatus,
			&l.UpdatedStatus, &l.Reason, &l.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
