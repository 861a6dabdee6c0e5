package server

import (
	"pulse/internal/feed"
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)

	var req struct {
		Content   string `json:"content"`
		MediaKind string `json:"media_kind,omitempty"`
		MediaURL  string `json:"media_url,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
		UserID:    userID,
		Content:   req.Content,
		MediaKind: req.MediaKind,
		MediaURL:  req.MediaURL,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	// Load user data for response
	post, err = s.posts.GetPost(ctx, post.ID)
	if err != nil {
		return respondAppError(c, err)
	}

	// Fold the write into the feed read model; the broker echo of the same
	// post is deduplicated by id.
	s.feed.Apply(feed.NewLocalCreate(post))

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.posts.ListPosts(c.Context())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.GetPost(c.Context(), id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.posts.ListUserPosts(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.UpdatePost(ctx, postID, userID, req.Content)
	if err != nil {
		return respondAppError(c, err)
	}

	s.feed.Apply(feed.NewLocalEdit(post.ID, post.Content))

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. The post row goes first; its
// comments are then removed best-effort, and the outcome report is returned
// so callers can see partial failures.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.cascade.DeletePost(ctx, postID, userID)
	if err != nil {
		return respondAppError(c, err)
	}

	s.feed.Apply(feed.NewLocalDelete(postID))

	return c.JSON(report)
}

// ToggleLike handles POST /api/posts/:id/like. The request carries the
// client's optimistic view of the state being toggled away from.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(string)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		CurrentlyLiked bool `json:"currently_liked"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.engagement.ToggleLike(ctx, postID, userID, req.CurrentlyLiked); err != nil {
		return respondAppError(c, err)
	}

	eng, err := s.engagement.Engagement(ctx, postID, userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(eng)
}

// GetEngagement handles GET /api/posts/:id/engagement. Guests get
// is_liked=false alongside the counter.
func (s *Server) GetEngagement(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)
	eng, err := s.engagement.Engagement(c.Context(), postID, viewerID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(eng)
}
