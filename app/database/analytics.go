package database

import (
	"database/sql"
)

// StudentAttendanceSummary is the per-student rollup used by reports and
// the HOD dashboards.
type StudentAttendanceSummary struct {
	RollNo       string  `json:"roll_no"`
	StudentName  string  `json:"student_name"`
	TotalClasses int     `json:"total_classes"`
	Attended     int     `json:"attended"`
	Percentage   float64 `json:"percentage"`
}

// SubjectAttendanceSummary is the per-subject rollup for one class.
type SubjectAttendanceSummary struct {
	Subject      string  `json:"subject"`
	TotalClasses int     `json:"total_classes"`
	Attended     int     `json:"attended"`
	Percentage   float64 `json:"percentage"`
}

// SectionAttendanceSummary aggregates one section for the HOD dashboard.
type SectionAttendanceSummary struct {
	Section       string  `json:"section"`
	StudentCount  int     `json:"student_count"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// GetStudentAttendanceSummary computes one student's attendance percentage
// over every saved record, optionally narrowed to a subject.
func GetStudentAttendanceSummary(db *sql.DB, rollNo, subject string) (*StudentAttendanceSummary, error) {
	query := `SELECT roll_no,
			  COALESCE(MAX(student_name), ''),
			  COUNT(*),
			  COUNT(*) FILTER (WHERE status = 'present')
			  FROM attendance_records
			  WHERE roll_no = $1 AND ($2 = '' OR subject = $2)
			  GROUP BY roll_no`

	s := &StudentAttendanceSummary{}
	err := db.QueryRow(query, rollNo, subject).Scan(&s.RollNo, &s.StudentName, &s.TotalClasses, &s.Attended)
	if err == sql.ErrNoRows {
		return &StudentAttendanceSummary{RollNo: rollNo}, nil
	}
	if err != nil {
		return nil, err
	}
	if s.TotalClasses > 0 {
		s.Percentage = round2(float64(s.Attended) * 100 / float64(s.TotalClasses))
	}
	return s, nil
}

// GetClassAttendanceSummary computes per-student percentages for one class.
func GetClassAttendanceSummary(db *sql.DB, className string) ([]*StudentAttendanceSummary, error) {
	query := `SELECT roll_no,
			  COALESCE(MAX(student_name), ''),
			  COUNT(*),
			  COUNT(*) FILTER (WHERE status = 'present')
			  FROM attendance_records
			  WHERE class_name = $1
			  GROUP BY roll_no
			  ORDER BY roll_no`

	rows, err := db.Query(query, className)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*StudentAttendanceSummary
	for rows.Next() {
		s := &StudentAttendanceSummary{}
		if err := rows.Scan(&s.RollNo, &s.StudentName, &s.TotalClasses, &s.Attended); err != nil {
			return nil, err
		}
		if s.TotalClasses > 0 {
			s.Percentage = round2(float64(s.Attended) * 100 / float64(s.TotalClasses))
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetSubjectAttendanceSummary computes the per-subject rollup for a class.
func GetSubjectAttendanceSummary(db *sql.DB, className string) ([]*SubjectAttendanceSummary, error) {
	query := `SELECT subject,
			  COUNT(*),
			  COUNT(*) FILTER (WHERE status = 'present')
			  FROM attendance_records
			  WHERE class_name = $1 AND subject <> ''
			  GROUP BY subject
			  ORDER BY subject`

	rows, err := db.Query(query, className)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*SubjectAttendanceSummary
	for rows.Next() {
		s := &SubjectAttendanceSummary{}
		if err := rows.Scan(&s.Subject, &s.TotalClasses, &s.Attended); err != nil {
			return nil, err
		}
		if s.TotalClasses > 0 {
			s.Percentage = round2(float64(s.Attended) * 100 / float64(s.TotalClasses))
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetBranchAttendanceSummary aggregates attendance per section of a branch
// for the HOD dashboard.
func GetBranchAttendanceSummary(db *sql.DB, branch string) ([]*SectionAttendanceSummary, error) {
	query := `WITH per_student AS (
			  	SELECT s.section,
			  	       s.roll_no,
			  	       COUNT(ar.id) AS total,
			  	       COUNT(ar.id) FILTER (WHERE ar.status = 'present') AS attended
			  	FROM students s
			  	LEFT JOIN attendance_records ar ON ar.roll_no = s.roll_no
			  	WHERE s.branch = $1
			  	GROUP BY s.section, s.roll_no
			  )
			  SELECT section,
			         COUNT(*),
			         COALESCE(AVG(CASE WHEN total > 0 THEN attended * 100.0 / total END), 0)
			  FROM per_student
			  GROUP BY section
			  ORDER BY section`

	rows, err := db.Query(query, branch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*SectionAttendanceSummary
	for rows.Next() {
		s := &SectionAttendanceSummary{}
		if err := rows.Scan(&s.Section, &s.StudentCount, &s.AvgPercentage); err != nil {
			return nil, err
		}
		s.AvgPercentage = round2(s.AvgPercentage)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SessionHistoryEntry summarises one saved class session.
type SessionHistoryEntry struct {
	ClassName    string `json:"class_name"`
	Subject      string `json:"subject"`
	Hour         string `json:"hour"`
	Date         string `json:"date"`
	PresentCount int    `json:"present_count"`
	TotalCount   int    `json:"total_count"`
}

// GetAttendanceHistory lists the most recently saved sessions.
func GetAttendanceHistory(db *sql.DB, limit int) ([]*SessionHistoryEntry, error) {
	query := `SELECT class_name, subject, hour, date,
			  COUNT(*) FILTER (WHERE status = 'present'),
			  COUNT(*)
			  FROM attendance_records
			  GROUP BY class_name, subject, hour, date
			  ORDER BY date DESC, MAX(created_at) DESC
			  LIMIT $1`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*SessionHistoryEntry
	for rows.Next() {
		e := &SessionHistoryEntry{}
		if err := rows.Scan(&e.ClassName, &e.Subject, &e.Hour, &e.Date, &e.PresentCount, &e.TotalCount); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
