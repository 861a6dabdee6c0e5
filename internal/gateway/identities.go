package gateway

import (
	"context"
	"errors"

	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
)

type identityStore struct {
	db  *gorm.DB
	log *observability.StoreLogger
}

// NewIdentityStore creates a gorm-backed IdentityStore.
func NewIdentityStore(db *gorm.DB) IdentityStore {
	return &identityStore{db: db, log: observability.NewStoreLogger("identity")}
}

func (s *identityStore) Create(ctx context.Context, identity *models.Identity) error {
	if err := s.db.WithContext(ctx).Create(identity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("An account with this email already exists")
		}
		s.log.LogError(ctx, err, "create")
		return translate("identity", "create", identity.UserID, err)
	}
	return nil
}

func (s *identityStore) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := s.db.WithContext(ctx).First(&identity, "email = ?", email).Error; err != nil {
		return nil, translate("identity", "get_by_email", email, err)
	}
	return &identity, nil
}

func (s *identityStore) Delete(ctx context.Context, userID string, auth Auth) error {
	if !auth.Owns(userID) {
		return models.NewUnauthorizedError("You can only delete your own account")
	}
	res := s.db.WithContext(ctx).Delete(&models.Identity{}, "user_id = ?", userID)
	if res.Error != nil {
		s.log.LogError(ctx, res.Error, "delete")
		return translate("identity", "delete", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("identity", userID)
	}
	return nil
}
