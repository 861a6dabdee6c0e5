package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media kinds accepted on a post.
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// Post is a feed entry. LikesCount and CommentsCount are cached,
// non-authoritative counters maintained by read-then-write updates; they
// can drift from the underlying Like and Comment rows under concurrent
// writers and are reconciled opportunistically, never transactionally.
type Post struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  string `gorm:"not null;index;size:36" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	MediaKind string `json:"media_kind,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`

	LikesCount    int `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int `gorm:"not null;default:0" json:"comments_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a stable identifier when none was provided.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
