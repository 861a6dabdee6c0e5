// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a member of the Pulse community. The ID doubles as the
// owner reference for everything the user creates.
type User struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Username       string         `gorm:"uniqueIndex;not null" json:"username"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	Bio            string         `gorm:"default:No bio yet" json:"bio"`
	Location       string         `json:"location,omitempty"`
	WebsiteURL     string         `json:"website_url,omitempty"`
	Pronouns       string         `json:"pronouns,omitempty"`
	ProfilePicture string         `json:"profile_picture,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Posts          []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// BeforeCreate assigns a stable identifier when none was provided.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
