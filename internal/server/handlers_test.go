package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse/internal/config"
	"pulse/internal/feed"
	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/realtime"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestServer(t *testing.T) (*Server, *fiber.App) {
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

	stores := gateway.New(db)
	s := &Server{
		config: &config.Config{JWTSecret: "test-secret", Port: "8480"},
		db:     db,
		stores: stores,
		hub:    realtime.NewHub(),
		feed:   feed.NewReconciler(stores.Posts, stores.Users),
	}
	s.users = service.NewUserService(stores.Users, stores.Identities)
	s.posts = service.NewPostService(stores.Posts)
	s.comments = service.NewCommentService(stores.Comments, stores.Posts)
	s.engagement = service.NewEngagementService(stores.Posts, stores.Likes)
	s.cascade = service.NewCascadeService(stores.Posts, stores.Comments, stores.Likes, stores.Users, stores.Identities)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func signupUser(t *testing.T, app *fiber.App, username string) (token, userID string) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"email":    username + "@example.test",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)
	token = body["token"].(string)
	userID = body["user"].(map[string]any)["id"].(string)
	return token, userID
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	token, userID := signupUser(t, app, "alice")
	require.NotEmpty(t, token)

	// Duplicate signup conflicts.
	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "alice", "email": "alice@example.test", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, status)

	// Login with the right password works, wrong password is a 401.
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "alice@example.test", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "alice@example.test", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// The token works against a protected route.
	status, body = doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])

	// No token, no entry.
	status, _ = doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostLifecycle(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	aliceToken, _ := signupUser(t, app, "alice")
	bobToken, _ := signupUser(t, app, "bob")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "first post",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := body["id"].(string)
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])

	// Public browse works without a token.
	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	// Another user cannot edit it.
	status, _ = doJSON(t, app, http.MethodPut, "/api/posts/"+postID, bobToken, fiber.Map{
		"content": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodPut, "/api/posts/"+postID, aliceToken, fiber.Map{
		"content": "edited post",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited post", body["content"])

	// A malformed id never reaches the store.
	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLikeToggleRoundTrip(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	aliceToken, _ := signupUser(t, app, "alice")
	bobToken, _ := signupUser(t, app, "bob")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "like me",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := body["id"].(string)

	status, body = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/like", bobToken, fiber.Map{
		"currently_liked": false,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["is_liked"])
	assert.Equal(t, float64(1), body["likes_count"])

	// Guests see the counter but never is_liked.
	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+postID+"/engagement", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_liked"])
	assert.Equal(t, float64(1), body["likes_count"])

	status, body = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/like", bobToken, fiber.Map{
		"currently_liked": true,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_liked"])
	assert.Equal(t, float64(0), body["likes_count"])
}

func TestCommentThreadOverHTTP(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	aliceToken, _ := signupUser(t, app, "alice")
	bobToken, _ := signupUser(t, app, "bob")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "discuss",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := body["id"].(string)

	status, body = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken, fiber.Map{
		"content": "top-level",
	})
	require.Equal(t, http.StatusCreated, status)
	topID := body["id"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/comments", aliceToken, fiber.Map{
		"content": "a reply", "parent_comment_id": topID,
	})
	require.Equal(t, http.StatusCreated, status)

	// The comment counter on the post reflects both rows.
	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["comments_count"])

	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	top := body["top"].([]any)
	require.Len(t, top, 1)
	replies := body["replies_by_parent"].(map[string]any)
	require.Len(t, replies[topID].([]any), 1)
}

func TestDeletePostReturnsReport(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	aliceToken, _ := signupUser(t, app, "alice")
	bobToken, _ := signupUser(t, app, "bob")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "short-lived",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := body["id"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken, fiber.Map{
		"content": "soon gone",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	steps := body["steps"].([]any)
	require.NotEmpty(t, steps)
	for _, raw := range steps {
		step := raw.(map[string]any)
		assert.Equal(t, "succeeded", step["outcome"], "step %v", step["name"])
	}

	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// The comment rows went with it.
	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["top"])
}

func getFeed(t *testing.T, app *fiber.App) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func TestFeedReadModel(t *testing.T) {
	t.Parallel()
	s, app := setupHandlerTestServer(t)

	aliceToken, _ := signupUser(t, app, "alice")

	require.Empty(t, getFeed(t, app))

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "hello feed",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := body["id"].(string)

	items := getFeed(t, app)
	require.Len(t, items, 1)
	assert.Equal(t, postID, items[0]["id"])
	assert.Equal(t, "hello feed", items[0]["content"])
	assert.Equal(t, "alice", items[0]["author_username"])

	// Edits patch the read model in place.
	status, _ = doJSON(t, app, http.MethodPut, "/api/posts/"+postID, aliceToken, fiber.Map{
		"content": "hello again",
	})
	require.Equal(t, http.StatusOK, status)
	items = getFeed(t, app)
	require.Len(t, items, 1)
	assert.Equal(t, "hello again", items[0]["content"])

	// Deletes remove the entry.
	status, _ = doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, getFeed(t, app))

	// A full reload from the store agrees with the incremental state.
	status, body = doJSON(t, app, http.MethodPost, "/api/posts/", aliceToken, fiber.Map{
		"content": "survives reload",
	})
	require.Equal(t, http.StatusCreated, status)
	keptID := body["id"].(string)

	_, err := s.feed.LoadInitial(context.Background())
	require.NoError(t, err)
	items = getFeed(t, app)
	require.Len(t, items, 1)
	assert.Equal(t, keptID, items[0]["id"])
	assert.Equal(t, "alice", items[0]["author_username"])
}

func TestDeleteAccountOverHTTP(t *testing.T) {
	t.Parallel()
	_, app := setupHandlerTestServer(t)

	aliceToken, aliceID := signupUser(t, app, "alice")
	bobToken, _ := signupUser(t, app, "bob")

	// Bob owns a post that Alice engaged with.
	status, body := doJSON(t, app, http.MethodPost, "/api/posts/", bobToken, fiber.Map{
		"content": "bob's post",
	})
	require.Equal(t, http.StatusCreated, status)
	bobPostID := body["id"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/api/posts/"+bobPostID+"/like", aliceToken, fiber.Map{
		"currently_liked": false,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodDelete, "/api/users/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body["steps"])

	// Alice's profile is gone; Bob's post survives with its counter walked back.
	status, _ = doJSON(t, app, http.MethodGet, "/api/users/"+aliceID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+bobPostID+"/engagement", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["likes_count"])
}
