package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetUserIDRaw(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user context")
	}
	return id, nil
}

// GetAccessTokenFromContext reads the access token from the accessToken cookie,
// falling back to the Authorization bearer header.
func GetAccessTokenFromContext(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

// GetRefreshTokenFromContext reads the refresh token from its cookie, or
// returns fallback (the body value) when the cookie is absent.
func GetRefreshTokenFromContext(c echo.Context, fallback string) (string, error) {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
}
