package models

import "time"

// Like records that a user liked a post. The (PostID, UserID) pair is the
// primary key, so at most one like per user per post exists; the row itself
// is the "is liked" fact. Likes are hard-deleted.
type Like struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
