package live

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportFilename(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		section string
		time    string
		want    string
	}{
		{"typical", "Data Structures", "AIML-B", "10:30 AM", "Data_Structures_AIML_B_10_30_AM"},
		{"already clean", "Maths", "CSE", "9AM", "Maths_CSE_9AM"},
		{"runs collapse", "OS  &  Networks", "CSE--A", "10:30", "OS_Networks_CSE_A_10_30"},
		{"empty fields fall back", "", "", "", "Subject_Section_Time"},
		{"trailing punctuation trimmed", "Lab!", "B!", "!10", "Lab_B_10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportFilename(tt.subject, tt.section, tt.time))
		})
	}
}

func TestReportFilenameIsIdempotentOnItsOutput(t *testing.T) {
	name := ReportFilename("Data Structures", "AIML-B", "10:30 AM")
	assert.Equal(t, name, strings.Trim(nonAlnum.ReplaceAllString(name, "_"), "_"))
}

func TestBuildCSV(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 30, 5, 0, time.UTC)
	got := string(BuildCSV([]Attendee{
		{RollNo: "A1", Name: "Alice"},
		{RollNo: "A2", Name: "Bob"},
	}, now))

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Equal(t, "S.No,Roll No,Name,Time", lines[0])
	assert.Equal(t, "1,A1,Alice,10:30:05 AM", lines[1])
	assert.Equal(t, "2,A2,Bob,10:30:05 AM", lines[2])
}

func TestBuildCSVEmpty(t *testing.T) {
	got := string(BuildCSV(nil, time.Now()))
	assert.Equal(t, "S.No,Roll No,Name,Time\n", got)
}
