package gateway

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
)

type commentStore struct {
	db  *gorm.DB
	log *observability.StoreLogger
}

// NewCommentStore creates a gorm-backed CommentStore.
func NewCommentStore(db *gorm.DB) CommentStore {
	return &commentStore{db: db, log: observability.NewStoreLogger("comment")}
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment, auth Auth) error {
	if !auth.Owns(comment.UserID) {
		return models.NewUnauthorizedError("You can only comment as yourself")
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		s.log.LogError(ctx, err, "create")
		return translate("comment", "create", comment.ID, err)
	}
	return nil
}

func (s *commentStore) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate("comment", "get", id, err)
	}
	return &comment, nil
}

func (s *commentStore) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate("comment", "list_by_post", postID, err)
	}
	return comments, nil
}

func (s *commentStore) ListByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate("comment", "list_by_user", userID, err)
	}
	return comments, nil
}

func (s *commentStore) CountByPost(ctx context.Context, postID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, translate("comment", "count_by_post", postID, err)
	}
	return int(count), nil
}

func (s *commentStore) UpdateContent(ctx context.Context, id, content string, auth Auth) error {
	comment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.Owns(comment.UserID) {
		return models.NewUnauthorizedError("You can only update your own comments")
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error; err != nil {
		s.log.LogError(ctx, err, "update_content")
		return translate("comment", "update_content", id, err)
	}
	return nil
}

// Delete removes exactly one comment row. Replies pointing at it are left in
// place with a dangling parent reference. Allowed to the comment owner and
// to the owner of the post it sits on.
func (s *commentStore) Delete(ctx context.Context, id string, auth Auth) error {
	comment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.Owns(comment.UserID) {
		// Unscoped: the post may already be soft-deleted when its comments
		// are being cascaded, and ownership still has to be provable.
		var post models.Post
		if err := s.db.WithContext(ctx).Unscoped().First(&post, "id = ?", comment.PostID).Error; err != nil {
			return translate("post", "get", comment.PostID, err)
		}
		if !auth.Owns(post.UserID) {
			return models.NewUnauthorizedError("You can only delete your own comments")
		}
	}
	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
		s.log.LogError(ctx, err, "delete")
		return translate("comment", "delete", id, err)
	}
	return nil
}
