package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	authService ports.AuthService
	logger      *logrus.Logger
}

func NewJWTMiddleware(authService ports.AuthService, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{authService: authService, logger: logger}
}

// RequireJWT validates the access token (cookie or bearer header) and puts
// the caller's id and role on the echo context.
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetAccessTokenFromContext(c)
			if err != nil {
				return err
			}

			claims, err := m.authService.AuthenticateAccessToken(c.Request().Context(), tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{
						"ip":     c.RealIP(),
						"path":   c.Request().URL.Path,
						"reason": autherr.ReasonOf(err),
					}).Warn("access token rejected")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			helpers.SetUserID(c, userID)
			helpers.SetUserRole(c, claims.Role)

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"user_id": userID, "role": claims.Role}).Debug("jwt validated and user context set")
			}

			return next(c)
		}
	}
}
