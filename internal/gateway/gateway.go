// Package gateway is the data access layer: typed CRUD, list, and subscribe
// operations against the persistent store, parameterized by a credential
// context. Services never touch gorm directly; everything goes through the
// store interfaces defined here so the remote store can be swapped or stubbed.
package gateway

import (
	"context"
	"errors"

	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
)

// Mode identifies the credential context a gateway call runs under.
type Mode string

const (
	// ModePublic is the unauthenticated read context.
	ModePublic Mode = "public"
	// ModeGuest is a recognized-but-anonymous session.
	ModeGuest Mode = "guest"
	// ModeOwner is an authenticated session acting as a specific user.
	ModeOwner Mode = "owner-session"
)

// Auth carries the credential context for a gateway call.
type Auth struct {
	Mode   Mode
	UserID string
}

// Public returns the unauthenticated credential context.
func Public() Auth { return Auth{Mode: ModePublic} }

// Guest returns the anonymous session credential context.
func Guest() Auth { return Auth{Mode: ModeGuest} }

// Owner returns an authenticated owner-session for the given user.
func Owner(userID string) Auth { return Auth{Mode: ModeOwner, UserID: userID} }

// Authenticated reports whether the context is an owner-session.
func (a Auth) Authenticated() bool {
	return a.Mode == ModeOwner && a.UserID != ""
}

// Owns reports whether the context is an owner-session for ownerID.
func (a Auth) Owns(ownerID string) bool {
	return a.Authenticated() && a.UserID == ownerID
}

// UserStore persists user profiles.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User, auth Auth) error
	Delete(ctx context.Context, id string, auth Auth) error
}

// PostStore persists posts and their cached engagement counters. Counter
// writes are deliberately separate from content writes: any authenticated
// user may adjust a counter (that is how likes on other people's posts
// work), while content and deletion stay owner-only.
type PostStore interface {
	Create(ctx context.Context, post *models.Post, auth Auth) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	UpdateContent(ctx context.Context, postID, content string, auth Auth) error
	SetLikesCount(ctx context.Context, postID string, count int, auth Auth) error
	SetCommentsCount(ctx context.Context, postID string, count int, auth Auth) error
	Delete(ctx context.Context, postID string, auth Auth) error
}

// CommentStore persists comments. Deletion is allowed to the comment owner
// and to the owner of the post the comment sits on (post deletion cascades
// through the latter).
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment, auth Auth) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID string) (int, error)
	UpdateContent(ctx context.Context, id, content string, auth Auth) error
	Delete(ctx context.Context, id string, auth Auth) error
}

// LikeStore persists like rows keyed by (postID, userID).
type LikeStore interface {
	Create(ctx context.Context, like *models.Like, auth Auth) error
	Get(ctx context.Context, postID, userID string) (*models.Like, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Like, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Like, error)
	Delete(ctx context.Context, postID, userID string, auth Auth) error
}

// IdentityStore persists account credential records.
type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Delete(ctx context.Context, userID string, auth Auth) error
}

// Stores bundles every store implementation plus the event broker.
type Stores struct {
	Users      UserStore
	Posts      PostStore
	Comments   CommentStore
	Likes      LikeStore
	Identities IdentityStore
	Broker     *Broker
}

// New builds gorm-backed stores sharing one broker.
func New(db *gorm.DB) *Stores {
	broker := NewBroker()
	return &Stores{
		Users:      NewUserStore(db),
		Posts:      NewPostStore(db, broker),
		Comments:   NewCommentStore(db),
		Likes:      NewLikeStore(db),
		Identities: NewIdentityStore(db),
		Broker:     broker,
	}
}

// translate maps a gorm error onto the application error taxonomy and
// records transport failures in the gateway error metric.
func translate(model, op string, id interface{}, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(model, id)
	}
	observability.GatewayErrors.WithLabelValues(model, op).Inc()
	return models.NewTransportError(op, err)
}
