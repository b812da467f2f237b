package models

import "time"

// AttendanceStatus defines the possible status values for a saved record.
type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
)

// AttendanceRecord is one student's saved status for a class session. Rows
// are written by the export pipeline when a live session is saved and by
// the manual-override submitter.
type AttendanceRecord struct {
	ID               string           `json:"id"`
	RollNo           string           `json:"roll_no"`
	StudentName      string           `json:"student_name"`
	ClassName        string           `json:"class_name"`
	Section          string           `json:"section"`
	Subject          string           `json:"subject"`
	Hour             string           `json:"hour"`
	Date             time.Time        `json:"date"`
	Status           AttendanceStatus `json:"status"`
	IsManualOverride bool             `json:"is_manual_override"`
	OverrideReason   string           `json:"override_reason,omitempty"`
	MarkedBy         string           `json:"marked_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// OverrideLog is one append-only audit entry for a manual attendance
// override. No update or delete path exists for these rows.
type OverrideLog struct {
	ID             string    `json:"id"`
	RollNo         string    `json:"rollNo"`
	StudentName    string    `json:"studentName"`
	FacultyID      string    `json:"facultyId"`
	FacultyName    string    `json:"facultyName"`
	Subject        string    `json:"subject"`
	Period         string    `json:"period"`
	ClassName      string    `json:"className"`
	Date           string    `json:"date"`
	OriginalStatus string    `json:"originalStatus"`
	UpdatedStatus  string    `json:"updatedStatus"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}
