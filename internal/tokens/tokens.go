package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/models"
)

var (
	// ErrTokenExpired means the signature checked out but the token is past
	// its expiry (minus the configured leeway).
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers everything else: bad signature, wrong alg,
	// issuer/audience mismatch, malformed input.
	ErrTokenInvalid = errors.New("invalid access token")
)

type AccessClaims struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID decodes the subject claim back into the numeric user id.
func (c *AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return uint(id), nil
}

// Issuer signs and verifies HS256 access tokens. The struct is built once from
// config and never mutated; no package-level signing state.
//
// Leeway is the clock-skew tolerance applied during verification. The default
// of zero is deliberate: issuance and verification share one process clock, so
// a token is rejected the instant it expires.
type Issuer struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Leeway    time.Duration
	Now       func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue signs a fresh access token for the user. Every call embeds a new
// random jti, so two tokens for the same user are never byte-identical.
func (i *Issuer) Issue(user *models.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.AccessTTL)

	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if i.Issuer != "" {
		claims.RegisteredClaims.Issuer = i.Issuer
	}
	if i.Audience != "" {
		claims.RegisteredClaims.Audience = jwt.ClaimStrings{i.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, lifetime and (when configured) issuer/audience.
// Expiry is reported as ErrTokenExpired, anything else as ErrTokenInvalid.
func (i *Issuer) Verify(tokenStr string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithLeeway(i.Leeway),
		jwt.WithExpirationRequired(),
	}
	if i.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.Issuer))
	}
	if i.Audience != "" {
		opts = append(opts, jwt.WithAudience(i.Audience))
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return i.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
