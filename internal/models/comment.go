package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is attached to a post. A nil ParentCommentID marks a top-level
// comment; a non-nil one marks a single-level reply. The column is
// self-referential and could nest arbitrarily, but the engine only ever
// creates replies to top-level comments. Deleting a parent does not cascade
// to its replies, so a ParentCommentID may dangle.
type Comment struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	Content         string  `gorm:"type:text;not null" json:"content"`
	UserID          string  `gorm:"not null;index;size:36" json:"user_id"`
	PostID          string  `gorm:"not null;index;size:36" json:"post_id"`
	ParentCommentID *string `gorm:"index;size:36" json:"parent_comment_id,omitempty"`
	User            User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a stable identifier when none was provided.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsReply reports whether the comment targets another comment.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil && *c.ParentCommentID != ""
}
