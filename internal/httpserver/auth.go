package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/auth_service/internal/middleware/auth"
	"github.com/Skotchmaster/auth_service/internal/service"
)

type AuthHandler struct {
	Svc *service.AuthService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken            string    `json:"accessToken"`
	RefreshToken           string    `json:"refreshToken"`
	AccessTokenExpiration  time.Time `json:"accessTokenExpiration"`
	RefreshTokenExpiration time.Time `json:"refreshTokenExpiration"`
	Username               string    `json:"username"`
	Role                   string    `json:"role"`
}

func pairResponse(res *service.LoginResult) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:            res.AccessToken,
		RefreshToken:           res.RefreshToken,
		AccessTokenExpiration:  res.AccessExp,
		RefreshTokenExpiration: res.RefreshExp,
		Username:               res.Username,
		Role:                   string(res.Role),
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(c.Request().Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"userId": user.ID,
		"role":   user.Role,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, pairResponse(res))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, pairResponse(res))
}

// Revoke invalidates one refresh token. Requires a valid access token and
// always acks: revoking an already-dead token is not an error.
func (h *AuthHandler) Revoke(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Revoke(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "token revoked"})
}

// Logout revokes every refresh token of the caller. The user id comes from
// the verified access token, not from the request body, so a caller can only
// ever log out themselves.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := mwauth.ClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	if err := h.Svc.LogoutAll(c.Request().Context(), userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	claims := mwauth.ClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
	}

	user, err := h.Svc.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	// models.User marshals without the password hash
	return c.JSON(http.StatusOK, user)
}
