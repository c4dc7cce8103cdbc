package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/auth_service/internal/middleware/auth"
	"github.com/Skotchmaster/auth_service/internal/policy"
)

type Deps struct {
	AuthHandler *AuthHandler
	Auth        *mwauth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	authed := auth.Group("", d.Auth.RequireAuth)
	authed.POST("/revoke", d.AuthHandler.Revoke)
	authed.POST("/logout", d.AuthHandler.Logout)
	authed.GET("/me", d.AuthHandler.Me)
	authed.GET("/protected", greeting, d.Auth.RequirePolicy(policy.UserOrAdmin))

	admin := e.Group("/admin", d.Auth.RequireAuth, d.Auth.RequirePolicy(policy.AdminOnly))
	admin.GET("/stats", stats)

	manager := e.Group("/manager", d.Auth.RequireAuth, d.Auth.RequirePolicy(policy.ManagerOnly))
	manager.GET("/reports", reports)
}

func greeting(c echo.Context) error {
	claims := mwauth.ClaimsFromContext(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "hello, " + claims.Username + ", you are authenticated",
	})
}

func stats(c echo.Context) error {
	claims := mwauth.ClaimsFromContext(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "admin area",
		"viewer":  claims.Username,
	})
}

func reports(c echo.Context) error {
	claims := mwauth.ClaimsFromContext(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "manager reports",
		"viewer":  claims.Username,
	})
}
