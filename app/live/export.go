package live

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ReportFilename derives the auto-generated export filename
// {subject}_{section}_{time} with every run of non-alphanumeric characters
// collapsed to a single underscore. Pure and idempotent: the same inputs
// always produce the same name.
func ReportFilename(subject, section, timeStr string) string {
	if subject == "" {
		subject = "Subject"
	}
	if section == "" {
		section = "Section"
	}
	if timeStr == "" {
		timeStr = "Time"
	}
	joined := subject + "_" + section + "_" + timeStr
	return strings.Trim(nonAlnum.ReplaceAllString(joined, "_"), "_")
}

// BuildCSV renders the present list as the export payload, one row per
// attendee, timestamped at export time.
func BuildCSV(attendees []Attendee, now time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString("S.No,Roll No,Name,Time\n")
	timestamp := now.Format("3:04:05 PM")
	for i, a := range attendees {
		fmt.Fprintf(&buf, "%d,%s,%s,%s\n", i+1, a.RollNo, a.Name, timestamp)
	}
	return buf.Bytes()
}
