package database

import (
	"database/sql"
	"log"
)

// RunMigrations creates the schema when missing. Every statement is
// idempotent so this is safe to run on every startup.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS teachers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			faculty_id VARCHAR(64) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			subjects TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS hods (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			department VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			roll_no VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			section VARCHAR(64) NOT NULL,
			branch VARCHAR(255) NOT NULL DEFAULT '',
			year VARCHAR(16) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (roll_no, section)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			roll_no VARCHAR(64) NOT NULL,
			student_name VARCHAR(255) NOT NULL DEFAULT '',
			class_name VARCHAR(255) NOT NULL,
			section VARCHAR(64) NOT NULL DEFAULT '',
			subject VARCHAR(255) NOT NULL DEFAULT '',
			hour VARCHAR(16) NOT NULL DEFAULT '',
			date DATE NOT NULL,
			status VARCHAR(10) NOT NULL,
			is_manual_override BOOLEAN NOT NULL DEFAULT FALSE,
			override_reason TEXT NOT NULL DEFAULT '',
			marked_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (roll_no, class_name, subject, hour, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_records_date
			ON attendance_records (date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_records_roll
			ON attendance_records (roll_no)`,
		`CREATE TABLE IF NOT EXISTS manual_override_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			roll_no VARCHAR(64) NOT NULL,
			student_name VARCHAR(255) NOT NULL DEFAULT '',
			faculty_id VARCHAR(64) NOT NULL,
			faculty_name VARCHAR(255) NOT NULL DEFAULT '',
			subject VARCHAR(255) NOT NULL DEFAULT '',
			period VARCHAR(16) NOT NULL DEFAULT '',
			class_name VARCHAR(255) NOT NULL DEFAULT '',
			date VARCHAR(10) NOT NULL,
			original_status VARCHAR(10) NOT NULL DEFAULT 'absent',
			updated_status VARCHAR(10) NOT NULL DEFAULT 'present',
			reason TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS report_files (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			filename VARCHAR(255) UNIQUE NOT NULL,
			course VARCHAR(255) NOT NULL DEFAULT '',
			class_name VARCHAR(255) NOT NULL DEFAULT '',
			hour VARCHAR(16) NOT NULL DEFAULT '',
			type VARCHAR(32) NOT NULL DEFAULT 'Lecture',
			teacher_email VARCHAR(255) NOT NULL DEFAULT '',
			content BYTEA NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS session_snapshots (
			key TEXT PRIMARY KEY,
			attendees JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Migration failed: %v", err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
