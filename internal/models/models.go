package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Role         Role      `gorm:"size:50;not null"              json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string     `gorm:"uniqueIndex;not null"     json:"token"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	IssuedAt  time.Time  `gorm:"not null"                 json:"issued_at"`
	ExpiresAt time.Time  `gorm:"not null"                 json:"expires_at"`
	Revoked   bool       `gorm:"default:false"            json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the token can still be exchanged at the given instant.
// A revoked token stays revoked, there is no way back.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
