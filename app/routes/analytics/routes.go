package analytics

import (
	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/routes/auth"
)

func SetupAnalyticsRoutes(app *fiber.App) {
	api := app.Group("/api/analytics")
	api.Use(auth.AuthMiddleware)
	api.Get("/student/:rollNo", GetStudentAnalyticsAPI)
	api.Get("/class/:className", GetClassAnalyticsAPI)
	api.Get("/subject/:className", GetSubjectAnalyticsAPI)

	hod := app.Group("/api/hod")
	hod.Use(auth.AuthMiddleware, auth.RoleMiddleware("hod"))
	hod.Get("/branches", GetBranchesAPI)
	hod.Get("/branch/:branch/attendance", GetBranchAttendanceAPI)
	hod.Get("/branch/:branch/section/:section/students", GetSectionStudentsAPI)
	hod.Get("/attendance-history", GetAttendanceHistoryAPI)
}
