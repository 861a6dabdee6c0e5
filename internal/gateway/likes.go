package gateway

import (
	"context"

	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type likeStore struct {
	db  *gorm.DB
	log *observability.StoreLogger
}

// NewLikeStore creates a gorm-backed LikeStore.
func NewLikeStore(db *gorm.DB) LikeStore {
	return &likeStore{db: db, log: observability.NewStoreLogger("like")}
}

func (s *likeStore) Create(ctx context.Context, like *models.Like, auth Auth) error {
	if !auth.Owns(like.UserID) {
		return models.NewUnauthorizedError("You can only like posts as yourself")
	}
	// ON CONFLICT DO NOTHING keeps a double-tap from erroring on the
	// composite key; the row either exists afterwards or it already did.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like).Error
	if err != nil {
		s.log.LogError(ctx, err, "create")
		return translate("like", "create", like.PostID+"/"+like.UserID, err)
	}
	return nil
}

func (s *likeStore) Get(ctx context.Context, postID, userID string) (*models.Like, error) {
	var like models.Like
	err := s.db.WithContext(ctx).
		First(&like, "post_id = ? AND user_id = ?", postID, userID).Error
	if err != nil {
		return nil, translate("like", "get", postID+"/"+userID, err)
	}
	return &like, nil
}

func (s *likeStore) ListByPost(ctx context.Context, postID string) ([]*models.Like, error) {
	var likes []*models.Like
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Find(&likes).Error
	if err != nil {
		return nil, translate("like", "list_by_post", postID, err)
	}
	return likes, nil
}

func (s *likeStore) ListByUser(ctx context.Context, userID string) ([]*models.Like, error) {
	var likes []*models.Like
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&likes).Error
	if err != nil {
		return nil, translate("like", "list_by_user", userID, err)
	}
	return likes, nil
}

func (s *likeStore) Delete(ctx context.Context, postID, userID string, auth Auth) error {
	if !auth.Owns(userID) {
		return models.NewUnauthorizedError("You can only remove your own likes")
	}
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error
	if err != nil {
		s.log.LogError(ctx, err, "delete")
		return translate("like", "delete", postID+"/"+userID, err)
	}
	return nil
}
