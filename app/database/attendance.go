package database

import (
	"database/sql"
	"time"

	"smart-attendance/app/models"
)

// SaveAttendanceRecords upserts a batch of attendance rows inside one
// transaction: either the whole session save lands or none of it does.
func SaveAttendanceRecords(db *sql.DB, records []*models.AttendanceRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO attendance_records
			  (roll_no, student_name, class_name, section, subject, hour, date, status,
			   is_manual_override, override_reason, marked_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (roll_no, class_name, subject, hour, date)
			  DO UPDATE SET status = EXCLUDED.status,
			                student_name = EXCLUDED.student_name,
			                is_manual_override = EXCLUDED.is_manual_override,
			                override_reason = EXCLUDED.override_reason,
			                marked_by = EXCLUDED.marked_by`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.RollNo, r.StudentName, r.ClassName, r.Section, r.Subject,
			r.Hour, r.Date, r.Status, r.IsManualOverride, r.OverrideReason, r.MarkedBy); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAttendanceByClassAndDate returns the saved records for a class session.
func GetAttendanceByClassAndDate(db *sql.DB, className string, date time.Time) ([]*models.AttendanceRecord, error) {
	query := `SELECT id, roll_no, student_name, class_name, section, subject, hour, date,
			  status, is_manual_override, override_reason, marked_by, created_at
			  FROM attendance_records
			  WHERE class_name = $1 AND date = $2
			  ORDER BY roll_no`

	rows, err := db.Query(query, className, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AttendanceRecord
	for rows.Next() {
		r := &models.AttendanceRecord{}
		if err := rows.Scan(&r.ID, &r.RollNo, &r.StudentName, &r.ClassName, &r.Section,
			&r.Subject, &r.Hour, &r.Date, &r.Status, &r.IsManualOverride,
			&r.OverrideReason, &r.MarkedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetAttendanceByRoll returns every saved record for one student, newest
// first.
func GetAttendanceByRoll(db *sql.DB, rollNo string) ([]*models.AttendanceRecord, error) {
	query := `SELECT id, roll_no, student_name, class_name, section, subject, hour, date,
			  status, is_manual_override, override_reason, marked_by, created_at
			  FROM attendance_records
			  WHERE roll_no = $1
			  ORDER BY date DESC, created_at DESC`

	rows, err := db.Query(query, rollNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AttendanceRecord
	for rows.Next() {
		r := &models.AttendanceRecord{}
		if err := rows.Scan(&r.ID, &r.RollNo, &r.StudentName, &r.ClassName, &r.Section,
			&r.Subject, &r.Hour, &r.Date, &r.Status, &r.IsManualOverride,
			&r.OverrideReason, &r.MarkedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
