package models

import "time"

// ReportFile is a stored attendance export (CSV) plus its metadata. Content
// lives in the same row; listings select everything but the content column.
type ReportFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Course       string    `json:"course"`
	ClassName    string    `json:"class_name"`
	Hour         string    `json:"hour"`
	Type         string    `json:"type"`
	TeacherEmail string    `json:"teacher_email"`
	Size         int       `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Content      []byte    `json:"-"`
}
