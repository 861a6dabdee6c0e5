package service

import (
	"context"
	"errors"
	"testing"

	"pulse/internal/gateway"
	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postStoreStub is a stub for gateway.PostStore.
type postStoreStub struct {
	createFn           func(context.Context, *models.Post, gateway.Auth) error
	getByIDFn          func(context.Context, string) (*models.Post, error)
	listFn             func(context.Context) ([]*models.Post, error)
	listByUserFn       func(context.Context, string) ([]*models.Post, error)
	updateContentFn    func(context.Context, string, string, gateway.Auth) error
	setLikesCountFn    func(context.Context, string, int, gateway.Auth) error
	setCommentsCountFn func(context.Context, string, int, gateway.Auth) error
	deleteFn           func(context.Context, string, gateway.Auth) error
}

func (s *postStoreStub) Create(ctx context.Context, post *models.Post, auth gateway.Auth) error {
	return s.createFn(ctx, post, auth)
}
func (s *postStoreStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postStoreStub) List(ctx context.Context) ([]*models.Post, error) {
	return s.listFn(ctx)
}
func (s *postStoreStub) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postStoreStub) UpdateContent(ctx context.Context, postID, content string, auth gateway.Auth) error {
	return s.updateContentFn(ctx, postID, content, auth)
}
func (s *postStoreStub) SetLikesCount(ctx context.Context, postID string, count int, auth gateway.Auth) error {
	return s.setLikesCountFn(ctx, postID, count, auth)
}
func (s *postStoreStub) SetCommentsCount(ctx context.Context, postID string, count int, auth gateway.Auth) error {
	return s.setCommentsCountFn(ctx, postID, count, auth)
}
func (s *postStoreStub) Delete(ctx context.Context, postID string, auth gateway.Auth) error {
	return s.deleteFn(ctx, postID, auth)
}

func noopPostStore() *postStoreStub {
	return &postStoreStub{
		createFn:           func(_ context.Context, _ *models.Post, _ gateway.Auth) error { return nil },
		getByIDFn:          func(_ context.Context, id string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:             func(_ context.Context) ([]*models.Post, error) { return nil, nil },
		listByUserFn:       func(_ context.Context, _ string) ([]*models.Post, error) { return nil, nil },
		updateContentFn:    func(_ context.Context, _, _ string, _ gateway.Auth) error { return nil },
		setLikesCountFn:    func(_ context.Context, _ string, _ int, _ gateway.Auth) error { return nil },
		setCommentsCountFn: func(_ context.Context, _ string, _ int, _ gateway.Auth) error { return nil },
		deleteFn:           func(_ context.Context, _ string, _ gateway.Auth) error { return nil },
	}
}

// likeStoreStub is a stub for gateway.LikeStore.
type likeStoreStub struct {
	createFn     func(context.Context, *models.Like, gateway.Auth) error
	getFn        func(context.Context, string, string) (*models.Like, error)
	listByPostFn func(context.Context, string) ([]*models.Like, error)
	listByUserFn func(context.Context, string) ([]*models.Like, error)
	deleteFn     func(context.Context, string, string, gateway.Auth) error
}

func (s *likeStoreStub) Create(ctx context.Context, like *models.Like, auth gateway.Auth) error {
	return s.createFn(ctx, like, auth)
}
func (s *likeStoreStub) Get(ctx context.Context, postID, userID string) (*models.Like, error) {
	return s.getFn(ctx, postID, userID)
}
func (s *likeStoreStub) ListByPost(ctx context.Context, postID string) ([]*models.Like, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *likeStoreStub) ListByUser(ctx context.Context, userID string) ([]*models.Like, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *likeStoreStub) Delete(ctx context.Context, postID, userID string, auth gateway.Auth) error {
	return s.deleteFn(ctx, postID, userID, auth)
}

func noopLikeStore() *likeStoreStub {
	return &likeStoreStub{
		createFn: func(_ context.Context, _ *models.Like, _ gateway.Auth) error { return nil },
		getFn: func(_ context.Context, postID, userID string) (*models.Like, error) {
			return &models.Like{PostID: postID, UserID: userID}, nil
		},
		listByPostFn: func(_ context.Context, _ string) ([]*models.Like, error) { return nil, nil },
		listByUserFn: func(_ context.Context, _ string) ([]*models.Like, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _, _ string, _ gateway.Auth) error { return nil },
	}
}

// commentStoreStub is a stub for gateway.CommentStore.
type commentStoreStub struct {
	createFn        func(context.Context, *models.Comment, gateway.Auth) error
	getByIDFn       func(context.Context, string) (*models.Comment, error)
	listByPostFn    func(context.Context, string) ([]*models.Comment, error)
	listByUserFn    func(context.Context, string) ([]*models.Comment, error)
	countByPostFn   func(context.Context, string) (int, error)
	updateContentFn func(context.Context, string, string, gateway.Auth) error
	deleteFn        func(context.Context, string, gateway.Auth) error
}

func (s *commentStoreStub) Create(ctx context.Context, comment *models.Comment, auth gateway.Auth) error {
	return s.createFn(ctx, comment, auth)
}
func (s *commentStoreStub) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentStoreStub) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentStoreStub) ListByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *commentStoreStub) CountByPost(ctx context.Context, postID string) (int, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *commentStoreStub) UpdateContent(ctx context.Context, id, content string, auth gateway.Auth) error {
	return s.updateContentFn(ctx, id, content, auth)
}
func (s *commentStoreStub) Delete(ctx context.Context, id string, auth gateway.Auth) error {
	return s.deleteFn(ctx, id, auth)
}

func noopCommentStore() *commentStoreStub {
	return &commentStoreStub{
		createFn:        func(_ context.Context, _ *models.Comment, _ gateway.Auth) error { return nil },
		getByIDFn:       func(_ context.Context, id string) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:    func(_ context.Context, _ string) ([]*models.Comment, error) { return nil, nil },
		listByUserFn:    func(_ context.Context, _ string) ([]*models.Comment, error) { return nil, nil },
		countByPostFn:   func(_ context.Context, _ string) (int, error) { return 0, nil },
		updateContentFn: func(_ context.Context, _, _ string, _ gateway.Auth) error { return nil },
		deleteFn:        func(_ context.Context, _ string, _ gateway.Auth) error { return nil },
	}
}

// userStoreStub is a stub for gateway.UserStore.
type userStoreStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User, gateway.Auth) error
	deleteFn        func(context.Context, string, gateway.Auth) error
}

func (s *userStoreStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userStoreStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userStoreStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userStoreStub) Update(ctx context.Context, user *models.User, auth gateway.Auth) error {
	return s.updateFn(ctx, user, auth)
}
func (s *userStoreStub) Delete(ctx context.Context, id string, auth gateway.Auth) error {
	return s.deleteFn(ctx, id, auth)
}

func noopUserStore() *userStoreStub {
	return &userStoreStub{
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn:       func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, name string) (*models.User, error) { return &models.User{Username: name}, nil },
		updateFn:        func(_ context.Context, _ *models.User, _ gateway.Auth) error { return nil },
		deleteFn:        func(_ context.Context, _ string, _ gateway.Auth) error { return nil },
	}
}

// identityStoreStub is a stub for gateway.IdentityStore.
type identityStoreStub struct {
	createFn     func(context.Context, *models.Identity) error
	getByEmailFn func(context.Context, string) (*models.Identity, error)
	deleteFn     func(context.Context, string, gateway.Auth) error
}

func (s *identityStoreStub) Create(ctx context.Context, identity *models.Identity) error {
	return s.createFn(ctx, identity)
}
func (s *identityStoreStub) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *identityStoreStub) Delete(ctx context.Context, userID string, auth gateway.Auth) error {
	return s.deleteFn(ctx, userID, auth)
}

func noopIdentityStore() *identityStoreStub {
	return &identityStoreStub{
		createFn:     func(_ context.Context, _ *models.Identity) error { return nil },
		getByEmailFn: func(_ context.Context, email string) (*models.Identity, error) { return &models.Identity{Email: email}, nil },
		deleteFn:     func(_ context.Context, _ string, _ gateway.Auth) error { return nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
