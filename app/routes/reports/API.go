package reports

import (
	"database/sql"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	"smart-attendance/app/models"
)

// StoreReportAPI accepts an already-built report file (the client-exported
// CSV) and stores it with its metadata.
func StoreReportAPI(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Report file missing"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read report file"})
	}
	content, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read report file"})
	}

	teacherEmail, _ := c.Locals("user_email").(string)
	report := &models.ReportFile{
		Filename:     fh.Filename,
		Course:       c.FormValue("course"),
		ClassName:    c.FormValue("class"),
		Hour:         c.FormValue("hour"),
		Type:         c.FormValue("type", "Lecture"),
		TeacherEmail: teacherEmail,
		Content:      content,
	}

	if err := database.SaveReportFile(config.GetDB(), report); err != nil {
		log.Printf("Failed to store report %s: %v", report.Filename, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to store report"})
	}

	return c.JSON(fiber.Map{
		"message":  "Report stored successfully",
		"filename": report.Filename,
	})
}

func ListReportsAPI(c *fiber.Ctx) error {
	files, err := database.ListReportFiles(config.GetDB())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to list reports"})
	}
	return c.JSON(fiber.Map{
		"files": files,
		"count": len(files),
	})
}

func DownloadReportAPI(c *fiber.Ctx) error {
	filename := c.Params("filename")
	report, err := database.GetReportFile(config.GetDB(), filename)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Report not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load report"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	return c.Send(report.Content)
}

func DeleteReportAPI(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if err := database.DeleteReportFile(config.GetDB(), filename); err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Report not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete report"})
	}
	return c.JSON(fiber.Map{"message": "Report deleted"})
}

// GetManualLogsAPI lists the caller's own override audit entries.
func GetManualLogsAPI(c *fiber.Ctx) error {
	facultyID, _ := c.Locals("faculty_id").(string)
	if facultyID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Faculty ID is required"})
	}

	logs, err := database.GetOverrideLogsByFaculty(config.GetDB(), facultyID,
		c.Query("date"), c.Query("className"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch override logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetManualLogsHODAPI lists every override audit entry for HOD review.
func GetManualLogsHODAPI(c *fiber.Ctx) error {
	logs, err := database.GetAllOverrideLogs(config.GetDB(), c.Query("date"), c.Query("className"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch override logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}
