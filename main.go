package main

import (
	"log"

	"smart-attendance/app/config"
	"smart-attendance/app/database"
	applive "smart-attendance/app/live"
	"smart-attendance/app/recognition"
	"smart-attendance/app/routes/analytics"
	"smart-attendance/app/routes/auth"
	"smart-attendance/app/routes/live"
	"smart-attendance/app/routes/reports"
	"smart-attendance/app/routes/students"
	"smart-attendance/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// customErrorHandler turns unhandled errors into JSON responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	// Load configuration
	config.Load()

	// Initialize database
	config.InitDB()
	defer config.GetDB().Close()

	// Run database migrations
	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Wire recognition service client and live session manager
	recognizer := recognition.NewClient(config.AppConfig.RecognitionURL)
	store := applive.NewDBStore(config.GetDB())
	manager := applive.NewManager(store, recognizer)

	// Start background scheduler
	services.StartScheduler(manager)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    32 * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health and metrics
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Setup auth routes
	auth.SetupAuthRoutes(app)

	// Setup students routes
	students.SetupStudentsRoutes(app)

	// Setup live session routes
	live.SetupLiveRoutes(app, manager)

	// Setup reports routes
	reports.SetupReportsRoutes(app)

	// Setup analytics routes
	analytics.SetupAnalyticsRoutes(app)

	// Catch-all route for 404 errors (must be last)
	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	// Start server
	log.Println("Server starting on :" + config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
