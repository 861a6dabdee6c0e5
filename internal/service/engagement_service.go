package service

import (
	"context"
	"sync"

	"pulse/internal/gateway"
	"pulse/internal/models"

	"go.opentelemetry.io/otel/attribute"

	"pulse/internal/observability"
)

// ErrToggleInFlight is returned when a like toggle for the same post and
// user is still pending. The caller keeps its optimistic state untouched.
var ErrToggleInFlight = models.NewConflictError("A like toggle for this post is already in flight")

// Engagement is the per-post read model exposed to the presentation layer.
type Engagement struct {
	IsLiked    bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}

// EngagementService toggles a user's like relationship to a post and keeps
// the post's cached likes counter approximately synchronized. The counter
// update is a read-then-write with no cross-client locking: two clients
// toggling concurrently can lose one increment. That drift is accepted; the
// in-flight guard only serializes toggles from this process.
type EngagementService struct {
	posts gateway.PostStore
	likes gateway.LikeStore

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewEngagementService creates an EngagementService over the given stores.
func NewEngagementService(posts gateway.PostStore, likes gateway.LikeStore) *EngagementService {
	return &EngagementService{
		posts:    posts,
		likes:    likes,
		inflight: make(map[string]struct{}),
	}
}

func (s *EngagementService) acquire(postID, userID string) bool {
	key := postID + ":" + userID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *EngagementService) release(postID, userID string) {
	s.mu.Lock()
	delete(s.inflight, postID+":"+userID)
	s.mu.Unlock()
}

// ToggleLike flips the like relationship. currentlyLiked is the caller's
// view of the state being toggled away from; the caller applies its
// optimistic UI delta before calling and reverts it if an error comes back.
func (s *EngagementService) ToggleLike(ctx context.Context, postID, userID string, currentlyLiked bool) error {
	ctx, span := observability.Tracer.Start(ctx, "EngagementService.ToggleLike")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", postID))

	if !s.acquire(postID, userID) {
		return ErrToggleInFlight
	}
	defer s.release(postID, userID)

	auth := gateway.Owner(userID)

	if currentlyLiked {
		return s.unlike(ctx, postID, userID, auth)
	}
	return s.like(ctx, postID, userID, auth)
}

func (s *EngagementService) like(ctx context.Context, postID, userID string, auth gateway.Auth) error {
	like := &models.Like{PostID: postID, UserID: userID}
	if err := s.likes.Create(ctx, like, auth); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	return s.posts.SetLikesCount(ctx, postID, post.LikesCount+1, auth)
}

func (s *EngagementService) unlike(ctx context.Context, postID, userID string, auth gateway.Auth) error {
	// A like row that is already gone means another session of this user
	// got there first; treat it as a no-op instead of decrementing twice.
	if _, err := s.likes.Get(ctx, postID, userID); err != nil {
		if models.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := s.likes.Delete(ctx, postID, userID, auth); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	return s.posts.SetLikesCount(ctx, postID, post.LikesCount-1, auth)
}

// Engagement returns the {isLiked, likesCount} read model for a post as seen
// by viewerID. An empty viewerID yields IsLiked=false.
func (s *EngagementService) Engagement(ctx context.Context, postID, viewerID string) (*Engagement, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	eng := &Engagement{LikesCount: post.LikesCount}
	if viewerID == "" {
		return eng, nil
	}

	if _, err := s.likes.Get(ctx, postID, viewerID); err != nil {
		if models.IsNotFound(err) {
			return eng, nil
		}
		return nil, err
	}
	eng.IsLiked = true
	return eng, nil
}
