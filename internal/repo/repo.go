package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already in use")
	ErrEmailTaken    = errors.New("email already in use")

	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrTokenNotActive means the row existed but was already revoked or past
	// expiry at the moment of the conditional update.
	ErrTokenNotActive = errors.New("refresh token revoked or expired")
	// ErrTokenConflict is a uniqueness collision on insert. The caller retries
	// once with a freshly generated value.
	ErrTokenConflict = errors.New("refresh token value collision")
)

// GormRepo is the record store for users and refresh tokens. Now is the shared
// clock for every expiry comparison; tests pin it.
type GormRepo struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (r *GormRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
