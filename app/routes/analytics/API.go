package analytics

import (
	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
)

// GetStudentAnalyticsAPI returns one student's attendance percentage,
// optionally filtered by subject (?subject=).
func GetStudentAnalyticsAPI(c *fiber.Ctx) error {
	rollNo := c.Params("rollNo")
	if rollNo == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Roll number is required"})
	}

	summary, err := database.GetStudentAttendanceSummary(config.GetDB(), rollNo, c.Query("subject"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute student analytics"})
	}

	records, err := database.GetAttendanceByRoll(config.GetDB(), rollNo)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
	}

	return c.JSON(fiber.Map{
		"summary": summary,
		"records": records,
	})
}

// GetClassAnalyticsAPI returns per-student percentages for a class.
func GetClassAnalyticsAPI(c *fiber.Ctx) error {
	className := c.Params("className")
	if className == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class name is required"})
	}

	summaries, err := database.GetClassAttendanceSummary(config.GetDB(), className)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute class analytics"})
	}

	return c.JSON(fiber.Map{
		"class":    className,
		"students": summaries,
		"count":    len(summaries),
	})
}

// GetSubjectAnalyticsAPI returns the per-subject rollup for a class.
func GetSubjectAnalyticsAPI(c *fiber.Ctx) error {
	className := c.Params("className")
	if className == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Class name is required"})
	}

	summaries, err := database.GetSubjectAttendanceSummary(config.GetDB(), className)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute subject analytics"})
	}

	return c.JSON(fiber.Map{
		"class":    className,
		"subjects": summaries,
	})
}

func GetBranchesAPI(c *fiber.Ctx) error {
	branches, err := database.GetBranches(config.GetDB())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch branches"})
	}
	return c.JSON(fiber.Map{"branches": branches})
}

// GetBranchAttendanceAPI aggregates attendance per section of a branch.
func GetBranchAttendanceAPI(c *fiber.Ctx) error {
	branch := c.Params("branch")
	summaries, err := database.GetBranchAttendanceSummary(config.GetDB(), branch)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute branch attendance"})
	}
	return c.JSON(fiber.Map{
		"branch":   branch,
		"sections": summaries,
	})
}

func GetSectionStudentsAPI(c *fiber.Ctx) error {
	branch := c.Params("branch")
	section := c.Params("section")
	students, err := database.GetStudentsByBranchAndSection(config.GetDB(), branch, section)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch students"})
	}
	return c.JSON(fiber.Map{
		"students": students,
		"count":    len(students),
	})
}

// GetAttendanceHistoryAPI lists recently saved class sessions.
func GetAttendanceHistoryAPI(c *fiber.Ctx) error {
	history, err := database.GetAttendanceHistory(config.GetDB(), 50)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance history"})
	}
	return c.JSON(fiber.Map{
		"history": history,
		"count":   len(history),
	})
}
