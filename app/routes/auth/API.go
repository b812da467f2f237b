package auth

import (
	"database/sql"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	"smart-attendance/app/models"
)

func RegisterTeacherAPI(c *fiber.Ctx) error {
	type RegisterRequest struct {
		FacultyID string   `json:"facultyId"`
		Name      string   `json:"name"`
		Email     string   `json:"email"`
		Password  string   `json:"password"`
		Subjects  []string `json:"subjects"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.FacultyID == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Faculty ID, email and password are required"})
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	teacher := &models.Teacher{
		FacultyID: req.FacultyID,
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		Subjects:  req.Subjects,
	}
	if err := database.CreateTeacher(config.GetDB(), teacher); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return c.Status(409).JSON(fiber.Map{"error": "A teacher with this email or faculty ID already exists"})
		}
		log.Printf("Failed to register teacher: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to register teacher"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Teacher registered successfully",
		"teacher": teacher,
	})
}

func LoginTeacherAPI(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	teacher, err := database.GetTeacherByEmail(config.GetDB(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if !CheckPasswordHash(req.Password, teacher.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := GenerateJWT(teacher.ID, teacher.Email, teacher.Name, teacher.FacultyID, models.RoleTeacher)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"teacher": teacher,
	})
}

func TeacherDashboardDataAPI(c *fiber.Ctx) error {
	facultyID := c.Params("facultyId")
	if facultyID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Faculty ID is required"})
	}

	teacher, err := database.GetTeacherByFacultyID(config.GetDB(), facultyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(404).JSON(fiber.Map{"error": "Teacher not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	overrides, err := database.GetOverrideLogsByFaculty(config.GetDB(), facultyID, "", "")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch override history"})
	}

	return c.JSON(fiber.Map{
		"teacher":         teacher,
		"subjects":        teacher.Subjects,
		"recentOverrides": overrides,
	})
}

func RegisterHODAPI(c *fiber.Ctx) error {
	type RegisterRequest struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Department string `json:"department"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	hod := &models.HOD{
		Name:       req.Name,
		Email:      req.Email,
		Password:   hashed,
		Department: req.Department,
	}
	if err := database.CreateHOD(config.GetDB(), hod); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return c.Status(409).JSON(fiber.Map{"error": "An HOD with this email already exists"})
		}
		log.Printf("Failed to register HOD: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to register HOD"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "HOD registered successfully",
		"hod":     hod,
	})
}

func LoginHODAPI(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	hod, err := database.GetHODByEmail(config.GetDB(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}
	if !CheckPasswordHash(req.Password, hod.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := GenerateJWT(hod.ID, hod.Email, hod.Name, "", models.RoleHOD)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"hod":     hod,
	})
}
