package gateway

import (
	"context"

	"pulse/internal/cache"
	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
)

type postStore struct {
	db     *gorm.DB
	broker *Broker
	log    *observability.StoreLogger
}

// NewPostStore creates a gorm-backed PostStore publishing into broker.
func NewPostStore(db *gorm.DB, broker *Broker) PostStore {
	return &postStore{db: db, broker: broker, log: observability.NewStoreLogger("post")}
}

func (s *postStore) Create(ctx context.Context, post *models.Post, auth Auth) error {
	if !auth.Owns(post.UserID) {
		return models.NewUnauthorizedError("You can only create posts as yourself")
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		s.log.LogError(ctx, err, "create")
		return translate("post", "create", post.ID, err)
	}
	cache.InvalidatePostsList(ctx)
	s.broker.Publish(PostEvent{Kind: PostCreated, Post: *post})
	return nil
}

func (s *postStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return s.db.WithContext(ctx).Preload("User").First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate("post", "get", id, err)
	}
	return &post, nil
}

func (s *postStore) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.PostsListKey(), &posts, cache.ListTTL, func() error {
		return s.db.WithContext(ctx).
			Preload("User").
			Order("created_at DESC").
			Find(&posts).Error
	})
	if err != nil {
		return nil, translate("post", "list", "", err)
	}
	return posts, nil
}

func (s *postStore) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, translate("post", "list_by_user", userID, err)
	}
	return posts, nil
}

func (s *postStore) UpdateContent(ctx context.Context, postID, content string, auth Auth) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !auth.Owns(post.UserID) {
		return models.NewUnauthorizedError("You can only update your own posts")
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Update("content", content).Error; err != nil {
		s.log.LogError(ctx, err, "update_content")
		return translate("post", "update_content", postID, err)
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidatePostsList(ctx)
	return nil
}

func (s *postStore) SetLikesCount(ctx context.Context, postID string, count int, auth Auth) error {
	return s.setCounter(ctx, postID, "likes_count", count, auth)
}

func (s *postStore) SetCommentsCount(ctx context.Context, postID string, count int, auth Auth) error {
	return s.setCounter(ctx, postID, "comments_count", count, auth)
}

func (s *postStore) setCounter(ctx context.Context, postID, column string, count int, auth Auth) error {
	if !auth.Authenticated() {
		return models.NewUnauthorizedError("Sign in to engage with posts")
	}
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Update(column, count)
	if res.Error != nil {
		s.log.LogError(ctx, res.Error, column)
		return translate("post", column, postID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("post", postID)
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidatePostsList(ctx)
	return nil
}

func (s *postStore) Delete(ctx context.Context, postID string, auth Auth) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !auth.Owns(post.UserID) {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	if err := s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", postID).Error; err != nil {
		s.log.LogError(ctx, err, "delete")
		return translate("post", "delete", postID, err)
	}
	cache.InvalidatePost(ctx, postID)
	cache.InvalidatePostsList(ctx)
	s.broker.Publish(PostEvent{Kind: PostDeleted, Post: *post})
	return nil
}
