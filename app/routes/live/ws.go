package live

import (
	"github.com/gofiber/websocket/v2"

	applive "smart-attendance/app/live"
)

// SessionFeedWS streams recognition matches to an operator watching a live
// session. The feed is display-only; clients cannot mutate the session
// over it.
func SessionFeedWS(c *websocket.Conn) {
	key := applive.Key{
		ClassName: c.Params("class"),
		Section:   c.Params("section"),
		Date:      c.Params("date"),
	}

	session, err := manager.Get(key)
	if err != nil {
		c.WriteJSON(map[string]string{"error": err.Error()})
		c.Close()
		return
	}

	session.Hub.Register(c)
	defer session.Hub.Unregister(c)

	// Drain client messages until the connection drops so the hub can
	// write freely.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
