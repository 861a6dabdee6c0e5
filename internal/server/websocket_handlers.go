package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedUpgrade gates the feed endpoint to websocket upgrade requests. Guests
// are allowed; the feed is a public read surface.
func (s *Server) FeedUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		if userID, ok := s.optionalUserID(c); ok {
			c.Locals("userID", userID)
		}
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// FeedHandler handles WebSocket connections for the live post feed.
func (s *Server) FeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			log.Printf("WebSocket feed: failed to register client: %v", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
