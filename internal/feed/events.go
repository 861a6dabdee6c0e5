// Package feed maintains the ordered, de-duplicated, client-visible list of
// posts by folding locally-optimistic mutations and the remote change
// stream into one id-indexed collection.
package feed

import (
	"time"

	"pulse/internal/models"
)

// Kind tags a reconciler event.
type Kind string

const (
	LocalCreate  Kind = "localCreate"
	LocalDelete  Kind = "localDelete"
	LocalEdit    Kind = "localEdit"
	RemoteCreate Kind = "remoteCreate"
	RemoteDelete Kind = "remoteDelete"
)

// Event is one entry of the tagged union the reconciler reduces over.
// Create events carry the full post; delete events only need PostID; edit
// events carry PostID plus the new content. At orders creates against
// delete tombstones when the transport delivers out of order.
type Event struct {
	Kind    Kind
	Post    *models.Post
	PostID  string
	Content string
	At      time.Time
}

// NewLocalCreate builds the event for the local user's own just-created post.
func NewLocalCreate(post *models.Post) Event {
	return Event{Kind: LocalCreate, Post: post, PostID: post.ID, At: post.CreatedAt}
}

// NewLocalDelete builds the optimistic local removal event. There is no
// rollback path: if the remote delete later fails the post stays gone until
// the next full load.
func NewLocalDelete(postID string) Event {
	return Event{Kind: LocalDelete, PostID: postID, At: time.Now()}
}

// NewLocalEdit builds the in-place content patch event.
func NewLocalEdit(postID, content string) Event {
	return Event{Kind: LocalEdit, PostID: postID, Content: content, At: time.Now()}
}
