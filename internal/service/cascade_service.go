package service

import (
	"context"
	"fmt"
	"sync"

	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/observability"

	"golang.org/x/sync/errgroup"
)

// Outcome classifies how a cascade step went.
type Outcome string

const (
	StepSucceeded       Outcome = "succeeded"
	StepPartiallyFailed Outcome = "partiallyFailed"
	StepFailed          Outcome = "failed"
)

// Step is one observable unit of a cascade deletion.
type Step struct {
	Name     string   `json:"name"`
	Outcome  Outcome  `json:"outcome"`
	Failures []string `json:"failures,omitempty"`
}

// Report collects the per-step outcomes of a cascade deletion. Best-effort
// steps record partial failures instead of aborting; only the terminal
// record deletions abort the whole operation.
type Report struct {
	Steps []Step `json:"steps"`
}

func (r *Report) add(step Step) {
	observability.CascadeSteps.WithLabelValues(step.Name, string(step.Outcome)).Inc()
	r.Steps = append(r.Steps, step)
}

// Succeeded reports whether every step fully succeeded.
func (r *Report) Succeeded() bool {
	for _, s := range r.Steps {
		if s.Outcome != StepSucceeded {
			return false
		}
	}
	return true
}

const cascadeConcurrency = 8

// CascadeService removes a post or an account together with its dependent
// records and compensates counters on records it referenced. Nothing here is
// transactional: completed steps are never rolled back when a later step
// fails, and partial failures inside a best-effort group are tolerated.
type CascadeService struct {
	posts      gateway.PostStore
	comments   gateway.CommentStore
	likes      gateway.LikeStore
	users      gateway.UserStore
	identities gateway.IdentityStore
}

// NewCascadeService creates a CascadeService over the given stores.
func NewCascadeService(
	posts gateway.PostStore,
	comments gateway.CommentStore,
	likes gateway.LikeStore,
	users gateway.UserStore,
	identities gateway.IdentityStore,
) *CascadeService {
	return &CascadeService{
		posts:      posts,
		comments:   comments,
		likes:      likes,
		users:      users,
		identities: identities,
	}
}

// collector accumulates per-item failures from a best-effort group.
type collector struct {
	mu       sync.Mutex
	failures []string
}

func (c *collector) fail(format string, args ...interface{}) {
	c.mu.Lock()
	c.failures = append(c.failures, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

func (c *collector) outcome() (Outcome, []string) {
	if len(c.failures) == 0 {
		return StepSucceeded, nil
	}
	return StepPartiallyFailed, c.failures
}

// DeletePost removes the post row, then best-effort deletes every comment on
// it. Like rows referencing the post are intentionally left behind; the
// asymmetry is observable and pinned by tests rather than silently fixed.
func (s *CascadeService) DeletePost(ctx context.Context, postID, ownerID string) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "CascadeService.DeletePost")
	defer span.End()

	report := &Report{}
	auth := gateway.Owner(ownerID)

	// Comments have to be listed before the post row disappears, but the
	// post deletion stays first so a failure there aborts cleanly.
	comments, listErr := s.comments.ListByPost(ctx, postID)

	if err := s.posts.Delete(ctx, postID, auth); err != nil {
		report.add(Step{Name: "delete post", Outcome: StepFailed, Failures: []string{err.Error()}})
		return report, err
	}
	report.add(Step{Name: "delete post", Outcome: StepSucceeded})

	if listErr != nil {
		report.add(Step{Name: "delete comments", Outcome: StepPartiallyFailed, Failures: []string{listErr.Error()}})
		return report, nil
	}

	col := &collector{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, comment := range comments {
		g.Go(func() error {
			if err := s.comments.Delete(gctx, comment.ID, auth); err != nil && !models.IsNotFound(err) {
				col.fail("comment %s: %v", comment.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	outcome, failures := col.outcome()
	report.add(Step{Name: "delete comments", Outcome: outcome, Failures: failures})
	return report, nil
}

// DeleteAccount removes everything a user owns and compensates counters on
// other users' posts the account had engaged with. Steps 1-3 run
// concurrently with best-effort semantics; a failure deleting the user row
// or the identity record aborts and surfaces the error, leaving the earlier
// steps in place.
func (s *CascadeService) DeleteAccount(ctx context.Context, userID string) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "CascadeService.DeleteAccount")
	defer span.End()

	report := &Report{}
	auth := gateway.Owner(userID)

	var (
		postsCol    = &collector{}
		likesCol    = &collector{}
		commentsCol = &collector{}
	)

	var outer sync.WaitGroup
	outer.Add(3)

	go func() {
		defer outer.Done()
		s.deleteOwnedPosts(ctx, userID, auth, postsCol)
	}()
	go func() {
		defer outer.Done()
		s.compensateLikes(ctx, userID, auth, likesCol)
	}()
	go func() {
		defer outer.Done()
		s.compensateComments(ctx, userID, auth, commentsCol)
	}()
	outer.Wait()

	for _, entry := range []struct {
		name string
		col  *collector
	}{
		{"delete owned posts", postsCol},
		{"delete likes and compensate counters", likesCol},
		{"delete comments and compensate counters", commentsCol},
	} {
		outcome, failures := entry.col.outcome()
		report.add(Step{Name: entry.name, Outcome: outcome, Failures: failures})
	}

	if err := s.users.Delete(ctx, userID, auth); err != nil {
		report.add(Step{Name: "delete user record", Outcome: StepFailed, Failures: []string{err.Error()}})
		return report, err
	}
	report.add(Step{Name: "delete user record", Outcome: StepSucceeded})

	if err := s.identities.Delete(ctx, userID, auth); err != nil {
		report.add(Step{Name: "delete identity record", Outcome: StepFailed, Failures: []string{err.Error()}})
		return report, err
	}
	report.add(Step{Name: "delete identity record", Outcome: StepSucceeded})

	return report, nil
}

func (s *CascadeService) deleteOwnedPosts(ctx context.Context, userID string, auth gateway.Auth, col *collector) {
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		col.fail("list posts: %v", err)
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, post := range posts {
		g.Go(func() error {
			comments, err := s.comments.ListByPost(gctx, post.ID)
			if err != nil {
				col.fail("list comments for post %s: %v", post.ID, err)
			} else {
				for _, comment := range comments {
					if err := s.comments.Delete(gctx, comment.ID, auth); err != nil && !models.IsNotFound(err) {
						col.fail("comment %s: %v", comment.ID, err)
					}
				}
			}
			if err := s.posts.Delete(gctx, post.ID, auth); err != nil && !models.IsNotFound(err) {
				col.fail("post %s: %v", post.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *CascadeService) compensateLikes(ctx context.Context, userID string, auth gateway.Auth, col *collector) {
	likes, err := s.likes.ListByUser(ctx, userID)
	if err != nil {
		col.fail("list likes: %v", err)
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, like := range likes {
		g.Go(func() error {
			if err := s.likes.Delete(gctx, like.PostID, like.UserID, auth); err != nil && !models.IsNotFound(err) {
				col.fail("like %s/%s: %v", like.PostID, like.UserID, err)
				return nil
			}
			post, err := s.posts.GetByID(gctx, like.PostID)
			if err != nil {
				// The liked post may be gone already (own posts are being
				// deleted concurrently); nothing left to compensate.
				if !models.IsNotFound(err) {
					col.fail("fetch post %s: %v", like.PostID, err)
				}
				return nil
			}
			if post.UserID == userID {
				return nil
			}
			if err := s.posts.SetLikesCount(gctx, like.PostID, post.LikesCount-1, auth); err != nil && !models.IsNotFound(err) {
				col.fail("decrement likes on post %s: %v", like.PostID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *CascadeService) compensateComments(ctx context.Context, userID string, auth gateway.Auth, col *collector) {
	comments, err := s.comments.ListByUser(ctx, userID)
	if err != nil {
		col.fail("list comments: %v", err)
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, comment := range comments {
		g.Go(func() error {
			if err := s.comments.Delete(gctx, comment.ID, auth); err != nil && !models.IsNotFound(err) {
				col.fail("comment %s: %v", comment.ID, err)
				return nil
			}
			post, err := s.posts.GetByID(gctx, comment.PostID)
			if err != nil {
				if !models.IsNotFound(err) {
					col.fail("fetch post %s: %v", comment.PostID, err)
				}
				return nil
			}
			if post.UserID == userID {
				return nil
			}
			if err := s.posts.SetCommentsCount(gctx, comment.PostID, post.CommentsCount-1, auth); err != nil && !models.IsNotFound(err) {
				col.fail("decrement comments on post %s: %v", comment.PostID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
