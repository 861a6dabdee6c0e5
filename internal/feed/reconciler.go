package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/observability"

	"golang.org/x/sync/errgroup"
)

// Reconciler holds the feed state for one mounted view: an ordered sequence
// of posts (newest first), an author-username side map resolved lazily per
// post, and delete tombstones used to reject stale creates. All mutation
// goes through Apply, which is idempotent by post id for creates and
// deletes; the change stream carries no ordering guarantee against the
// client's own writes.
type Reconciler struct {
	posts gateway.PostStore
	users gateway.UserStore

	mu         sync.Mutex
	order      []string
	byID       map[string]*models.Post
	authors    map[string]string
	tombstones map[string]time.Time
	closed     bool
}

// NewReconciler creates an empty reconciler over the given stores.
func NewReconciler(posts gateway.PostStore, users gateway.UserStore) *Reconciler {
	return &Reconciler{
		posts:      posts,
		users:      users,
		byID:       make(map[string]*models.Post),
		authors:    make(map[string]string),
		tombstones: make(map[string]time.Time),
	}
}

// LoadInitial replaces the feed with the server's current post list, newest
// first, resolving each author's username.
func (r *Reconciler) LoadInitial(ctx context.Context) ([]models.Post, error) {
	posts, err := r.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	sorted := make([]*models.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	authors := make(map[string]string, len(sorted))
	var authorsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, post := range sorted {
		g.Go(func() error {
			username, err := r.resolveAuthor(gctx, post)
			if err != nil {
				return err
			}
			authorsMu.Lock()
			authors[post.ID] = username
			authorsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil
	}
	r.order = r.order[:0]
	r.byID = make(map[string]*models.Post, len(sorted))
	for _, post := range sorted {
		r.order = append(r.order, post.ID)
		r.byID[post.ID] = post
	}
	for id, username := range authors {
		r.authors[id] = username
	}
	return r.snapshotLocked(), nil
}

func (r *Reconciler) resolveAuthor(ctx context.Context, post *models.Post) (string, error) {
	if post.User.Username != "" {
		return post.User.Username, nil
	}
	user, err := r.users.GetByID(ctx, post.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return user.Username, nil
}

// Apply reduces one event into the feed state. Late events arriving after
// Close are dropped.
func (r *Reconciler) Apply(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		observability.FeedEvents.WithLabelValues(string(ev.Kind), "dropped").Inc()
		return
	}

	result := "applied"
	switch ev.Kind {
	case LocalCreate, RemoteCreate:
		if !r.insertLocked(ev) {
			result = "deduplicated"
		}
	case LocalDelete, RemoteDelete:
		if !r.removeLocked(ev) {
			result = "noop"
		}
	case LocalEdit:
		if post, ok := r.byID[ev.PostID]; ok {
			post.Content = ev.Content
		} else {
			result = "noop"
		}
	default:
		result = "unknown"
	}
	observability.FeedEvents.WithLabelValues(string(ev.Kind), result).Inc()
}

// insertLocked prepends the post unless it is already present or a newer
// tombstone exists for its id. Returns false when the event was ignored.
func (r *Reconciler) insertLocked(ev Event) bool {
	if ev.Post == nil {
		return false
	}
	id := ev.Post.ID
	if _, exists := r.byID[id]; exists {
		return false
	}
	// A delete observed after this create was produced wins; without this
	// check a stale create re-surfaces a deleted post.
	if deletedAt, ok := r.tombstones[id]; ok && !ev.Post.CreatedAt.After(deletedAt) {
		return false
	}
	post := *ev.Post
	r.byID[id] = &post
	r.order = append([]string{id}, r.order...)
	if post.User.Username != "" {
		r.authors[id] = post.User.Username
	}
	return true
}

func (r *Reconciler) removeLocked(ev Event) bool {
	id := ev.PostID
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	r.tombstones[id] = at
	if _, exists := r.byID[id]; !exists {
		return false
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Run consumes the gateway's post change stream until ctx is cancelled,
// then unsubscribes. In-flight gateway calls are not cancelled; anything
// resolving afterwards is discarded by the closed check in Apply.
func (r *Reconciler) Run(ctx context.Context, broker *gateway.Broker) {
	creates := broker.SubscribeCreate()
	deletes := broker.SubscribeDelete()
	defer creates.Unsubscribe()
	defer deletes.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-creates.C:
			if !ok {
				return
			}
			post := ev.Post
			r.Apply(Event{Kind: RemoteCreate, Post: &post, PostID: post.ID, At: ev.At})
			r.resolveAuthorAsync(ctx, post)
		case ev, ok := <-deletes.C:
			if !ok {
				return
			}
			r.Apply(Event{Kind: RemoteDelete, PostID: ev.Post.ID, At: ev.At})
		}
	}
}

func (r *Reconciler) resolveAuthorAsync(ctx context.Context, post models.Post) {
	if post.User.Username != "" {
		return
	}
	go func() {
		username, err := r.resolveAuthor(ctx, &post)
		if err != nil || username == "" {
			return
		}
		r.mu.Lock()
		if !r.closed {
			if _, present := r.byID[post.ID]; present {
				r.authors[post.ID] = username
			}
		}
		r.mu.Unlock()
	}()
}

// AuthorUsername returns the resolved username for a post, if known.
func (r *Reconciler) AuthorUsername(postID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	username, ok := r.authors[postID]
	return username, ok
}

// Snapshot returns a stable copy of the feed, newest first.
func (r *Reconciler) Snapshot() []models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reconciler) snapshotLocked() []models.Post {
	out := make([]models.Post, 0, len(r.order))
	for _, id := range r.order {
		if post, ok := r.byID[id]; ok {
			out = append(out, *post)
		}
	}
	return out
}

// Close marks the reconciler dead; subsequent Apply calls are no-ops. Meant
// for view teardown, where in-flight loads may still resolve afterwards.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
