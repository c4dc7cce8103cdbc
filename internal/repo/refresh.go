package repo

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/internal/models"
)

// NewRefreshToken returns an opaque token value: 32 bytes from crypto/rand,
// base64url encoded. Not derived from the user, the clock or anything else.
func NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, userID uint, token string, ttl time.Duration) (*models.RefreshToken, error) {
	now := r.now()
	row := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTokenConflict
		}
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &row, nil
}

// RevokeRefreshToken is idempotent: revoking an unknown or already-revoked
// token is not an error, and revoked_at is only written the first time.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	now := r.now()
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// RevokeAllForUser flips every active token of one user in a single update.
// Tokens of other users are untouched.
func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	now := r.now()
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

func (r *GormRepo) ListActiveForUser(ctx context.Context, userID uint) ([]models.RefreshToken, error) {
	var rows []models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, r.now()).
		Find(&rows).Error
	return rows, err
}

// RotateRefreshToken retires oldToken and persists its replacement in one
// transaction. The update is conditional on the row still being active, so of
// two racing calls presenting the same value at most one can win; the loser
// gets ErrTokenNotActive. An unknown token fails the same way, a client cannot
// tell "revoked" from "never existed".
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldToken string, userID uint, newToken string, ttl time.Duration) (*models.RefreshToken, error) {
	now := r.now()
	row := models.RefreshToken{
		Token:     newToken,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("token = ? AND revoked = ? AND expires_at > ?", oldToken, false, now).
			Updates(map[string]any{"revoked": true, "revoked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotActive
		}

		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTokenConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}
