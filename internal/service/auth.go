package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/Skotchmaster/auth_service/internal/hash"
	"github.com/Skotchmaster/auth_service/internal/logging"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/tokens"
)

// EventPublisher is what the service needs from the kafka producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

const userEventsTopic = "user_events"

// bcrypt hash of a throwaway value, compared against when the username does
// not exist so that the miss costs the same as a wrong password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMye1J5F1rQeK7pZQ1EbhV3y5FJb0e7rGeO"

type AuthService struct {
	Repo       *repo.GormRepo
	Issuer     *tokens.Issuer
	Producer   EventPublisher
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Username     string
	Role         models.Role
}

func validateRegister(username, email, password string) error {
	errs := validation.Errors{
		"username": validation.Validate(username, validation.Required, validation.Length(3, 100)),
		"email":    validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password, validation.Required, validation.Length(6, 72)),
	}.Filter()
	if errs == nil {
		return nil
	}

	fields := make(map[string][]string)
	for field, err := range errs.(validation.Errors) {
		fields[field] = append(fields[field], err.Error())
	}
	return &ValidationError{Fields: fields}
}

// Register creates a user. An unrecognized role is coerced to User, never
// rejected. The plaintext password only ever reaches the hasher.
func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateRegister(username, email, password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.ParseRole(role),
	}

	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) || errors.Is(err, repo.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: %w", ErrUserExists, err)
		}
		l.Error("register failed", "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// Login verifies credentials and hands out a fresh access/refresh pair.
// Every failure path returns the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			hash.CheckPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		l.Error("login failed", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("login failed", "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return result, nil
}

// Refresh rotates the presented token: the old value is retired and a new
// pair is issued in its place. A second presentation of the same value fails
// exactly like a never-issued token.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	row, err := s.Repo.FindRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, repo.ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh failed", "error", err)
		return nil, err
	}
	if !row.Active(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.FindUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh failed", "error", err)
		return nil, err
	}

	accessToken, accessExp, err := s.Issuer.Issue(user)
	if err != nil {
		l.Error("refresh failed", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	newRow, err := s.rotateWithRetry(ctx, presented, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrTokenNotActive) {
			// lost the race or replayed: the row was already retired
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh failed", "error", err)
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRow.Token,
		AccessExp:    accessExp,
		RefreshExp:   newRow.ExpiresAt,
		Username:     user.Username,
		Role:         user.Role,
	}, nil
}

// Revoke is idempotent, mirroring the store semantics.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	if err := s.Repo.RevokeRefreshToken(ctx, token); err != nil {
		logging.FromContext(ctx).Error("revoke failed", "svc", "auth.revoke", "error", err)
		return err
	}
	return nil
}

// LogoutAll revokes every active refresh token of one user. The id must come
// from verified access-token claims, never from request input.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all")

	if err := s.Repo.RevokeAllForUser(ctx, userID); err != nil {
		l.Error("logout failed", "error", err)
		return err
	}

	s.publish(ctx, userID, map[string]any{
		"type":    "user_logged_out",
		"user_id": userID,
	})
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, userID)
}

// issuePair signs an access token and persists a refresh token for the user.
// The signed strings are discarded if the save fails, so a half-issued pair
// never reaches the client.
func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessToken, accessExp, err := s.Issuer.Issue(user)
	if err != nil {
		return nil, err
	}

	var row *models.RefreshToken
	for attempt := 0; attempt < 2; attempt++ {
		value, err := repo.NewRefreshToken()
		if err != nil {
			return nil, err
		}
		row, err = s.Repo.SaveRefreshToken(ctx, user.ID, value, s.RefreshTTL)
		if err == nil {
			break
		}
		if !errors.Is(err, repo.ErrTokenConflict) || attempt == 1 {
			return nil, err
		}
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: row.Token,
		AccessExp:    accessExp,
		RefreshExp:   row.ExpiresAt,
		Username:     user.Username,
		Role:         user.Role,
	}, nil
}

// rotateWithRetry runs the store's atomic rotation, retrying once if the
// freshly generated replacement value collides.
func (s *AuthService) rotateWithRetry(ctx context.Context, oldToken string, userID uint) (*models.RefreshToken, error) {
	for attempt := 0; ; attempt++ {
		value, err := repo.NewRefreshToken()
		if err != nil {
			return nil, err
		}
		row, err := s.Repo.RotateRefreshToken(ctx, oldToken, userID, value, s.RefreshTTL)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, repo.ErrTokenConflict) || attempt == 1 {
			return nil, err
		}
	}
}

// publish sends an auth event; failures are logged and never fail the request.
func (s *AuthService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, userEventsTopic, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
