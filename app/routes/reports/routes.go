package reports

import (
	"github.com/gofiber/fiber/v2"

	"smart-attendance/app/routes/auth"
)

func SetupReportsRoutes(app *fiber.App) {
	api := app.Group("/api/attendance")
	api.Use(auth.AuthMiddleware)

	api.Post("/store-excel", StoreReportAPI)
	api.Get("/list-files", ListReportsAPI)
	api.Get("/download/:filename", DownloadReportAPI)
	api.Delete("/delete/:filename", DeleteReportAPI)

	api.Get("/manual-logs", GetManualLogsAPI)
	api.Get("/manual-logs/hod", auth.RoleMiddleware("hod"), GetManualLogsHODAPI)
}
