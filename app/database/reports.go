package database

import (
	"database/sql"

	"smart-attendance/app/models"
)

// SaveReportFile stores an export file, replacing any previous file with
// the same name.
func SaveReportFile(db *sql.DB, report *models.ReportFile) error {
	query := `INSERT INTO report_files (filename, course, class_name, hour, type, teacher_email, content)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (filename)
			  DO UPDATE SET course = EXCLUDED.course,
			                class_name = EXCLUDED.class_name,
			                hour = EXCLUDED.hour,
			                type = EXCLUDED.type,
			                teacher_email = EXCLUDED.teacher_email,
			                content = EXCLUDED.content,
			                uploaded_at = NOW()
			  RETURNING id, uploaded_at`

	return db.QueryRow(query, report.Filename, report.Course, report.ClassName,
		report.Hour, report.Type, report.TeacherEmail, report.Content).
		Scan(&report.ID, &report.UploadedAt)
}

// ListReportFiles returns stored report metadata, newest first. Content is
// not loaded.
func ListReportFiles(db *sql.DB) ([]*models.ReportFile, error) {
	query := `SELECT id, filename, course, class_name, hour, type, teacher_email,
			  length(content), uploaded_at
			  FROM report_files
			  ORDER BY uploaded_at DESC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.ReportFile
	for rows.Next() {
		r := &models.ReportFile{}
		if err := rows.Scan(&r.ID, &r.Filename, &r.Course, &r.ClassName, &r.Hour,
			&r.Type, &r.TeacherEmail, &r.Size, &r.UploadedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetReportFile loads one stored report including its content.
func GetReportFile(db *sql.DB, filename string) (*models.ReportFile, error) {
	query := `SELECT id, filename, course, class_name, hour, type, teacher_email,
			  length(content), uploaded_at, content
			  FROM report_files
			  WHERE filename = $1`

	r := &models.ReportFile{}
	err := db.QueryRow(query, filename).Scan(&r.ID, &r.Filename, &r.Course, &r.ClassName,
		&r.Hour, &r.Type, &r.TeacherEmail, &r.Size, &r.UploadedAt, &r.Content)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteReportFile removes a stored report. Returns sql.ErrNoRows when the
// filename does not exist.
func DeleteReportFile(db *sql.DB, filename string) error {
	result, err := db.Exec(`DELETE FROM report_files WHERE filename = $1`, filename)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
