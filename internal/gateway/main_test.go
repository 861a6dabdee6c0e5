package gateway

import (
	"context"
	"errors"
	"testing"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Identity{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	))
	return db
}

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	return New(newTestDB(t))
}

func seedUser(t *testing.T, stores *Stores, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.test"}
	require.NoError(t, stores.Users.Create(context.Background(), user))
	return user
}

func seedPost(t *testing.T, stores *Stores, userID, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: content}
	require.NoError(t, stores.Posts.Create(context.Background(), post, Owner(userID)))
	return post
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
