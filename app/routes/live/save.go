package live

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	applive "smart-attendance/app/live"
	"smart-attendance/app/models"
)

// SaveSessionAPI snapshots the session into attendance records and a
// stored CSV report. Both writes are attempted; if either fails the
// response names which one, and the in-memory session stays untouched so
// the operator can retry.
func SaveSessionAPI(c *fiber.Ctx) error {
	session, ok := getSession(c)
	if !ok {
		return nil
	}

	type SaveRequest struct {
		Course   string `json:"course"`
		Hour     string `json:"hour"`
		Type     string `json:"type"`
		Time     string `json:"time"`
		Filename string `json:"filename"`
	}
	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	present := session.Reconciler.Present()
	if len(present) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No attendees to save"})
	}
	absent := session.Reconciler.Absent()

	key := session.Key
	if req.Hour == "" {
		req.Hour = "1"
	}
	if req.Type == "" {
		req.Type = "Lecture"
	}
	if req.Time == "" {
		req.Time = time.Now().Format("3:04 PM")
	}

	date, err := time.Parse("2006-01-02", key.Date)
	if err != nil {
		date = time.Now()
	}

	teacherEmail, _ := c.Locals("user_email").(string)

	records := make([]*models.AttendanceRecord, 0, len(present)+len(absent))
	for _, a := range present {
		records = append(records, &models.AttendanceRecord{
			RollNo:           a.RollNo,
			StudentName:      a.Name,
			ClassName:        key.ClassName,
			Section:          key.Section,
			Subject:          req.Course,
			Hour:             req.Hour,
			Date:             date,
			Status:           models.Present,
			IsManualOverride: a.IsManualOverride,
			OverrideReason:   a.ManualOverrideReason,
			MarkedBy:         teacherEmail,
		})
	}
	for _, s := range absent {
		records = append(records, &models.AttendanceRecord{
			RollNo:      s.RollNo,
			StudentName: s.Name,
			ClassName:   key.ClassName,
			Section:     key.Section,
			Subject:     req.Course,
			Hour:        req.Hour,
			Date:        date,
			Status:      models.Absent,
			MarkedBy:    teacherEmail,
		})
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = applive.ReportFilename(req.Course, key.Section, req.Time)
	}
	if !strings.HasSuffix(filename, ".csv") {
		filename += ".csv"
	}
	report := &models.ReportFile{
		Filename:     filename,
		Course:       req.Course,
		ClassName:    key.ClassName,
		Hour:         req.Hour,
		Type:         req.Type,
		TeacherEmail: teacherEmail,
		Content:      applive.BuildCSV(present, time.Now()),
	}

	var failed []string
	if err := database.SaveAttendanceRecords(config.GetDB(), records); err != nil {
		log.Printf("Failed to save attendance records for %s: %v", key.StorageKey(), err)
		failed = append(failed, "attendance records")
	}
	if err := database.SaveReportFile(config.GetDB(), report); err != nil {
		log.Printf("Failed to store report file %s: %v", filename, err)
		failed = append(failed, "report file")
	}

	if len(failed) > 0 {
		return c.Status(502).JSON(fiber.Map{
			"error":  "Failed to save: " + strings.Join(failed, " and "),
			"failed": failed,
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Attendance saved successfully",
		"filename":      filename,
		"present_count": len(present),
		"absent_count":  len(absent),
	})
}
