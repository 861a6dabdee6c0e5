package feed

import (
	"context"
	"testing"
	"time"

	"pulse/internal/gateway"
	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postStoreStub is a stub for gateway.PostStore.
type postStoreStub struct {
	listFn func(context.Context) ([]*models.Post, error)
}

func (s *postStoreStub) Create(context.Context, *models.Post, gateway.Auth) error { return nil }
func (s *postStoreStub) GetByID(_ context.Context, id string) (*models.Post, error) {
	return nil, models.NewNotFoundError("Post", id)
}
func (s *postStoreStub) List(ctx context.Context) ([]*models.Post, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}
func (s *postStoreStub) ListByUser(context.Context, string) ([]*models.Post, error) {
	return nil, nil
}
func (s *postStoreStub) UpdateContent(context.Context, string, string, gateway.Auth) error {
	return nil
}
func (s *postStoreStub) SetLikesCount(context.Context, string, int, gateway.Auth) error { return nil }
func (s *postStoreStub) SetCommentsCount(context.Context, string, int, gateway.Auth) error {
	return nil
}
func (s *postStoreStub) Delete(context.Context, string, gateway.Auth) error { return nil }

// userStoreStub is a stub for gateway.UserStore.
type userStoreStub struct {
	getByIDFn func(context.Context, string) (*models.User, error)
}

func (s *userStoreStub) Create(context.Context, *models.User) error { return nil }
func (s *userStoreStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &models.User{ID: id, Username: "user-" + id}, nil
}
func (s *userStoreStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return &models.User{Username: username}, nil
}
func (s *userStoreStub) Update(context.Context, *models.User, gateway.Auth) error { return nil }
func (s *userStoreStub) Delete(context.Context, string, gateway.Auth) error       { return nil }

func post(id string, createdAt time.Time) *models.Post {
	return &models.Post{ID: id, Content: "content " + id, UserID: "author", CreatedAt: createdAt}
}

func ids(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestReconciler_LoadInitialNewestFirst(t *testing.T) {
	t.Parallel()

	base := time.Now()
	store := &postStoreStub{listFn: func(context.Context) ([]*models.Post, error) {
		return []*models.Post{
			post("p1", base.Add(1*time.Minute)),
			post("p3", base.Add(3*time.Minute)),
			post("p2", base.Add(2*time.Minute)),
		}, nil
	}}
	r := NewReconciler(store, &userStoreStub{})

	snapshot, err := r.LoadInitial(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(snapshot))

	username, ok := r.AuthorUsername("p2")
	require.True(t, ok)
	assert.Equal(t, "user-author", username)
}

func TestReconciler_DeleteRemovesFromMiddle(t *testing.T) {
	t.Parallel()

	base := time.Now()
	r := NewReconciler(&postStoreStub{}, &userStoreStub{})
	r.Apply(Event{Kind: RemoteCreate, Post: post("p1", base.Add(1 * time.Minute)), PostID: "p1"})
	r.Apply(Event{Kind: RemoteCreate, Post: post("p2", base.Add(2 * time.Minute)), PostID: "p2"})
	r.Apply(Event{Kind: RemoteCreate, Post: post("p3", base.Add(3 * time.Minute)), PostID: "p3"})

	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(r.Snapshot()))

	r.Apply(NewLocalDelete("p2"))
	assert.Equal(t, []string{"p3", "p1"}, ids(r.Snapshot()))
}

func TestReconciler_CreateDeduplicatesByID(t *testing.T) {
	t.Parallel()

	base := time.Now()
	r := NewReconciler(&postStoreStub{}, &userStoreStub{})

	p3 := post("p3", base)
	r.Apply(NewLocalCreate(p3))
	// The change stream echoes the local write back.
	r.Apply(Event{Kind: RemoteCreate, Post: p3, PostID: "p3"})

	assert.Equal(t, []string{"p3"}, ids(r.Snapshot()))
}

func TestReconciler_StaleCreateAfterDeleteIsIgnored(t *testing.T) {
	t.Parallel()

	created := time.Now()
	p := post("p1", created)

	r := NewReconciler(&postStoreStub{}, &userStoreStub{})
	r.Apply(NewLocalCreate(p))

	// Delete lands, then the transport re-delivers the original create out
	// of order. The tombstone wins.
	r.Apply(Event{Kind: RemoteDelete, PostID: "p1", At: created.Add(time.Second)})
	r.Apply(Event{Kind: RemoteCreate, Post: p, PostID: "p1", At: created})

	assert.Empty(t, r.Snapshot())

	// A genuinely new post reusing nothing is unaffected.
	r.Apply(Event{Kind: RemoteCreate, Post: post("p2", created.Add(2*time.Second)), PostID: "p2"})
	assert.Equal(t, []string{"p2"}, ids(r.Snapshot()))
}

func TestReconciler_RecreateAfterDeleteIsAccepted(t *testing.T) {
	t.Parallel()

	created := time.Now()
	r := NewReconciler(&postStoreStub{}, &userStoreStub{})

	r.Apply(Event{Kind: RemoteCreate, Post: post("p1", created), PostID: "p1"})
	r.Apply(Event{Kind: RemoteDelete, PostID: "p1", At: created.Add(time.Second)})

	// A create stamped after the tombstone is a real new event, not a stale
	// redelivery.
	r.Apply(Event{Kind: RemoteCreate, Post: post("p1", created.Add(2*time.Second)), PostID: "p1"})
	assert.Equal(t, []string{"p1"}, ids(r.Snapshot()))
}

func TestReconciler_LocalEditPatchesContent(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&postStoreStub{}, &userStoreStub{})
	r.Apply(NewLocalCreate(post("p1", time.Now())))

	r.Apply(NewLocalEdit("p1", "updated content"))

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "updated content", snapshot[0].Content)

	// Editing an absent post is a no-op, not a crash.
	r.Apply(NewLocalEdit("missing", "whatever"))
}

func TestReconciler_DeleteUnknownPostOnlyRecordsTombstone(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&postStoreStub{}, &userStoreStub{})
	r.Apply(Event{Kind: RemoteDelete, PostID: "p1", At: time.Now()})
	assert.Empty(t, r.Snapshot())

	// The stale create that prompted the tombstone still gets rejected.
	r.Apply(Event{Kind: RemoteCreate, Post: post("p1", time.Now().Add(-time.Minute)), PostID: "p1"})
	assert.Empty(t, r.Snapshot())
}

func TestReconciler_ClosedDropsEvents(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&postStoreStub{}, &userStoreStub{})
	r.Apply(NewLocalCreate(post("p1", time.Now())))
	r.Close()

	r.Apply(NewLocalCreate(post("p2", time.Now())))
	r.Apply(NewLocalDelete("p1"))

	// State is frozen at close time.
	assert.Equal(t, []string{"p1"}, ids(r.Snapshot()))
}

func TestReconciler_RunConsumesBroker(t *testing.T) {
	t.Parallel()

	broker := gateway.NewBroker()
	r := NewReconciler(&postStoreStub{}, &userStoreStub{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, broker)
		close(done)
	}()

	// Give Run a moment to subscribe before publishing.
	require.Eventually(t, func() bool {
		broker.Publish(gateway.PostEvent{Kind: gateway.PostCreated, Post: *post("p1", time.Now())})
		return len(r.Snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	broker.Publish(gateway.PostEvent{Kind: gateway.PostDeleted, Post: models.Post{ID: "p1"}, At: time.Now()})
	require.Eventually(t, func() bool {
		return len(r.Snapshot()) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
