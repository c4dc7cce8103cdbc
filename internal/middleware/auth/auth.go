package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/policy"
	"github.com/Skotchmaster/auth_service/internal/tokens"
)

const claimsKey = "auth_claims"

// Middleware verifies bearer access tokens and gates routes by policy.
type Middleware struct {
	Issuer   *tokens.Issuer
	Policies *policy.Evaluator
}

// RequireAuth verifies the Authorization bearer token and stores its claims
// in the request context. Expired and invalid tokens get the same response.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Issuer.Verify(tokenStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired access token")
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// RequirePolicy gates a route on the fixed policy table. The policy name is
// resolved at route registration; an unknown name panics during startup.
func (m *Middleware) RequirePolicy(policyName string) echo.MiddlewareFunc {
	name := m.Policies.MustPolicy(policyName)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !m.Policies.Allows(name, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the verified claims set by RequireAuth, or nil.
func ClaimsFromContext(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(claimsKey).(*tokens.AccessClaims)
	return claims
}

// RoleFromContext is a convenience for handlers that only need the role.
func RoleFromContext(c echo.Context) models.Role {
	if claims := ClaimsFromContext(c); claims != nil {
		return claims.Role
	}
	return ""
}
