package students

import (
	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/routes/auth"
)

func SetupStudentsRoutes(app *fiber.App) {
	api := app.Group("/api/student")
	api.Post("/register", RegisterStudentAPI)
	api.Get("/list/:section", auth.AuthMiddleware, GetStudentsBySectionAPI)
}
