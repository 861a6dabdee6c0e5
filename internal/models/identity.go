package models

import "time"

// Identity is the credential record backing a user account. It is stored
// separately from the profile row so account deletion can remove the two in
// distinct, individually observable steps.
type Identity struct {
	UserID       string    `gorm:"primaryKey;size:36" json:"user_id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
