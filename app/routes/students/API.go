package students

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	"smart-attendance/app/models"
)

// RegisterStudentAPI enrolls a student into the roster. Face enrollment
// (photo upload and embedding) happens against the recognition service
// directly; this side only owns the roster entry.
func RegisterStudentAPI(c *fiber.Ctx) error {
	type RegisterRequest struct {
		RollNo  string `json:"rollNo"`
		Name    string `json:"name"`
		Section string `json:"section"`
		Branch  string `json:"branch"`
		Year    string `json:"year"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.RollNo = strings.ToUpper(strings.TrimSpace(req.RollNo))
	if req.RollNo == "" || req.Name == "" || req.Section == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Roll number, name and section are required"})
	}

	student := &models.Student{
		RollNo:  req.RollNo,
		Name:    req.Name,
		Section: req.Section,
		Branch:  req.Branch,
		Year:    req.Year,
	}
	if err := database.CreateStudent(config.GetDB(), student); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return c.Status(409).JSON(fiber.Map{"error": "A student with this roll number already exists in this section"})
		}
		log.Printf("Failed to register student: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to register student"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Student registered successfully",
		"student": student,
	})
}

func GetStudentsBySectionAPI(c *fiber.Ctx) error {
	section := c.Params("section")
	if section == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Section is required"})
	}

	students, err := database.GetStudentsBySection(config.GetDB(), section)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch students"})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"count":    len(students),
	})
}
