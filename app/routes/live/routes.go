package live

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	applive "smart-attendance/app/live"
	"smart-attendance/app/routes/auth"
)

var manager *applive.Manager

// SetupLiveRoutes wires the live attendance session API. The session
// manager is injected here; handlers never reach into ambient state for it.
func SetupLiveRoutes(app *fiber.App, m *applive.Manager) {
	manager = m

	api := app.Group("/api/live")
	api.Use(auth.AuthMiddleware)

	api.Post("/open", OpenSessionAPI)

	session := api.Group("/:class/:section/:date")
	session.Get("/state", GetStateAPI)
	session.Post("/frame", PushFrameAPI)
	session.Post("/poller/start", StartPollerAPI)
	session.Post("/poller/stop", StopPollerAPI)
	session.Post("/images", UploadImagesAPI)
	session.Post("/images/:imageId/scan", ScanImageAPI)
	session.Delete("/images/:imageId", DeleteImageAPI)
	session.Post("/manual", ManualEntryAPI)
	session.Post("/override", ManualOverrideAPI)
	session.Post("/mark-all", MarkAllPresentAPI)
	session.Post("/clear", ClearAllAPI)
	session.Post("/save", SaveSessionAPI)
	session.Delete("/", CloseSessionAPI)

	// Websocket feed for operator feedback (recognized face boxes). The
	// upgrade check must run before the websocket handler.
	app.Use("/ws/live/:class/:section/:date", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/live/:class/:section/:date", websocket.New(SessionFeedWS))
}

func sessionKey(c *fiber.Ctx) applive.Key {
	return applive.Key{
		ClassName: c.Params("class"),
		Section:   c.Params("section"),
		Date:      c.Params("date"),
	}
}

// getSession resolves the session from the path, writing a 404 response
// itself when none is open.
func getSession(c *fiber.Ctx) (*applive.Session, bool) {
	s, err := manager.Get(sessionKey(c))
	if err != nil {
		c.Status(404).JSON(fiber.Map{"error": err.Error()})
		return nil, false
	}
	return s, true
}
