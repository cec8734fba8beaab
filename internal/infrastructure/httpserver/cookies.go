package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/httpserver/helpers"
)

func (s *Server) tokenCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) setTokenCookies(c echo.Context, pair *auth.TokenPair) {
	c.SetCookie(s.tokenCookie(helpers.AccessTokenCookie, pair.AccessToken, pair.AccessExpiresAt))
	c.SetCookie(s.tokenCookie(helpers.RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (s *Server) clearTokenCookies(c echo.Context) {
	for _, name := range []string{helpers.AccessTokenCookie, helpers.RefreshTokenCookie} {
		cookie := s.tokenCookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}
