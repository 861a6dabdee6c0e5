package server

import (
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// feedItem is one reconciled feed entry with its resolved author username.
type feedItem struct {
	models.Post
	AuthorUsername string `json:"author_username,omitempty"`
}

// GetFeed handles GET /api/feed. It serves the reconciled read model kept
// current by the post change stream instead of querying the posts table on
// every request. Handlers fold their own writes in synchronously, so a
// client sees its own create, edit, or delete on the next read.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	posts := s.feed.Snapshot()
	items := make([]feedItem, 0, len(posts))
	for _, post := range posts {
		username, _ := s.feed.AuthorUsername(post.ID)
		items = append(items, feedItem{Post: post, AuthorUsername: username})
	}
	return c.JSON(items)
}
