package service

import (
	"context"
	"net/url"
	"strings"

	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// PostService covers post authoring. Deletion goes through the
// CascadeService so dependent records are handled.
type PostService struct {
	posts gateway.PostStore
}

// CreatePostInput carries the fields for a new post.
type CreatePostInput struct {
	UserID    string
	Content   string
	MediaKind string
	MediaURL  string
}

// NewPostService creates a PostService over the given store.
func NewPostService(posts gateway.PostStore) *PostService {
	return &PostService{posts: posts}
}

const maxPostContentLen = 50000

// CreatePost validates and persists a new post. The created row is echoed
// back through the post change stream; feed consumers deduplicate it by id.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.Tracer.Start(ctx, "PostService.CreatePost")
	defer span.End()

	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxPostContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	switch in.MediaKind {
	case "":
		if in.MediaURL != "" {
			return nil, models.NewValidationError("media_kind is required when media_url is set")
		}
	case models.MediaKindImage, models.MediaKindVideo:
		if in.MediaURL == "" {
			return nil, models.NewValidationError("media_url is required when media_kind is set")
		}
		if _, err := url.ParseRequestURI(in.MediaURL); err != nil {
			return nil, models.NewValidationError("media_url must be a valid URL")
		}
	default:
		return nil, models.NewValidationError("media_kind must be image or video")
	}

	post := &models.Post{
		Content:   in.Content,
		UserID:    in.UserID,
		MediaKind: in.MediaKind,
		MediaURL:  in.MediaURL,
	}
	if err := s.posts.Create(ctx, post, gateway.Owner(in.UserID)); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost fetches a single post.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListPosts fetches the full post list, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.posts.List(ctx)
}

// ListUserPosts fetches the posts owned by a user, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

// UpdatePost patches a post's content. Owner-only; enforced at the store.
func (s *PostService) UpdatePost(ctx context.Context, postID, userID, content string) (*models.Post, error) {
	ctx, span := observability.Tracer.Start(ctx, "PostService.UpdatePost")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", postID))

	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if err := s.posts.UpdateContent(ctx, postID, content, gateway.Owner(userID)); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, postID)
}
