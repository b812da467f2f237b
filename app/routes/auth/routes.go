package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/models"
)

func SetupAuthRoutes(app *fiber.App) {
	teacher := app.Group("/api/teacher")
	teacher.Post("/register", RegisterTeacherAPI)
	teacher.Post("/login", LoginTeacherAPI)
	teacher.Get("/dashboard-data/:facultyId", AuthMiddleware, TeacherDashboardDataAPI)

	hod := app.Group("/api/hod")
	hod.Post("/register", RegisterHODAPI)
	hod.Post("/login", LoginHODAPI)
}

// AuthMiddleware validates the bearer token (or cookie) and sets the caller
// identity on the request context.
func AuthMiddleware(c *fiber.Ctx) error {
	var tokenString string

	if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		tokenString = c.Cookies("jwt_token")
	}
	if tokenString == "" {
		return c.Status(401).JSON(fiber.Map{"error": "No token found"})
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_name", claims.Name)
	c.Locals("faculty_id", claims.FacultyID)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)

	return c.Next()
}

// RoleMiddleware restricts a route to the given roles.
func RoleMiddleware(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(models.UserRole)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "No token found"})
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}
