package gateway

import (
	"context"
	"errors"

	"pulse/internal/cache"
	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
)

type userStore struct {
	db  *gorm.DB
	log *observability.StoreLogger
}

// NewUserStore creates a gorm-backed UserStore.
func NewUserStore(db *gorm.DB) UserStore {
	return &userStore{db: db, log: observability.NewStoreLogger("user")}
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Username or email is already taken")
		}
		s.log.LogError(ctx, err, "create")
		return translate("user", "create", user.ID, err)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate("user", "get", id, err)
	}
	return &user, nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, translate("user", "get_by_username", username, err)
	}
	return &user, nil
}

func (s *userStore) Update(ctx context.Context, user *models.User, auth Auth) error {
	if !auth.Owns(user.ID) {
		return models.NewUnauthorizedError("You can only update your own profile")
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		s.log.LogError(ctx, err, "update")
		return translate("user", "update", user.ID, err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string, auth Auth) error {
	if !auth.Owns(id) {
		return models.NewUnauthorizedError("You can only delete your own account")
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		s.log.LogError(ctx, res.Error, "delete")
		return translate("user", "delete", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("user", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
