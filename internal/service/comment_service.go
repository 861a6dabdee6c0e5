package service

import (
	"context"
	"sort"

	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

// Thread is the two-tier comment structure for a post. Top holds top-level
// comments newest-first; RepliesByParent maps a top-level comment id to its
// replies in creation order. The map can carry keys for parents that no
// longer exist (orphaned replies); those never show up in Top.
type Thread struct {
	Top             []*models.Comment            `json:"top"`
	RepliesByParent map[string][]*models.Comment `json:"replies_by_parent"`
}

// CommentService creates, edits, and deletes comments and assembles the
// gateway's flat comment list into a Thread. It shares the comments counter
// on Post with the cascade path; there is no cross-component locking, so
// interleaved comment and like traffic can each read a stale counter.
type CommentService struct {
	comments gateway.CommentStore
	posts    gateway.PostStore
}

// CreateCommentInput carries the fields for a new comment. ParentCommentID
// empty means top-level.
type CreateCommentInput struct {
	PostID          string
	UserID          string
	Content         string
	ParentCommentID string
}

// NewCommentService creates a CommentService over the given stores.
func NewCommentService(comments gateway.CommentStore, posts gateway.PostStore) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// CreateComment persists a new comment or reply, then rewrites the post's
// cached comments counter from a fresh server-side count. The count is
// authoritative at write time but not transactional with the insert.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	ctx, span := observability.Tracer.Start(ctx, "CommentService.CreateComment")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", in.PostID))

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if in.ParentCommentID != "" {
		parent, err := s.comments.GetByID(ctx, in.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Reply must target a comment on the same post")
		}
		if parent.IsReply() {
			return nil, models.NewValidationError("Replies can only target top-level comments")
		}
		parentID := in.ParentCommentID
		comment.ParentCommentID = &parentID
	}

	auth := gateway.Owner(in.UserID)
	if err := s.comments.Create(ctx, comment, auth); err != nil {
		return nil, err
	}

	count, err := s.comments.CountByPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetCommentsCount(ctx, in.PostID, count, auth); err != nil {
		return nil, err
	}

	return s.comments.GetByID(ctx, comment.ID)
}

// EditComment updates a comment's content in place. Counters are untouched.
func (s *CommentService) EditComment(ctx context.Context, commentID, userID, newContent string) error {
	ctx, span := observability.Tracer.Start(ctx, "CommentService.EditComment")
	defer span.End()
	span.SetAttributes(attribute.String("comment_id", commentID))

	if newContent == "" {
		return models.NewValidationError("Content is required")
	}
	if len(newContent) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return s.comments.UpdateContent(ctx, commentID, newContent, gateway.Owner(userID))
}

// DeleteComment removes exactly one comment row. Replies to it stay behind
// with a dangling parent reference, and the post's comments counter is not
// decremented. Both are long-standing observable behaviors; tests pin them.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID string) error {
	ctx, span := observability.Tracer.Start(ctx, "CommentService.DeleteComment")
	defer span.End()
	span.SetAttributes(attribute.String("comment_id", commentID))

	return s.comments.Delete(ctx, commentID, gateway.Owner(userID))
}

// Thread fetches the post's flat comment list and partitions it into the
// two-tier display structure.
func (s *CommentService) Thread(ctx context.Context, postID string) (*Thread, error) {
	ctx, span := observability.Tracer.Start(ctx, "CommentService.Thread")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", postID))

	flat, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return AssembleThread(flat), nil
}

// AssembleThread partitions a flat comment list: comments without a parent
// become Top (sorted newest-first), the rest are grouped by parent id in
// their stored creation order.
func AssembleThread(flat []*models.Comment) *Thread {
	t := &Thread{RepliesByParent: make(map[string][]*models.Comment)}
	for _, c := range flat {
		if c.IsReply() {
			parent := *c.ParentCommentID
			t.RepliesByParent[parent] = append(t.RepliesByParent[parent], c)
			continue
		}
		t.Top = append(t.Top, c)
	}
	sort.SliceStable(t.Top, func(i, j int) bool {
		return t.Top[i].CreatedAt.After(t.Top[j].CreatedAt)
	})
	return t
}
