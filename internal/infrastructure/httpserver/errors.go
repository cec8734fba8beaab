package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
)

// authError maps a session controller error onto an HTTP error. The three
// authentication kinds get fixed messages so responses never tell an unknown
// account apart from a wrong password or say why a token was rejected.
func (s *Server) authError(c echo.Context, op string, err error) error {
	kind := autherr.KindOf(err)
	recordAuthOutcome(op, err)

	switch kind {
	case autherr.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, publicMessage(err, "invalid request"))
	case autherr.KindInvalidCredential:
		if op == "change_password" {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid old password")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case autherr.KindUnauthorized:
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
	case autherr.KindInvalidOrExpiredToken:
		return echo.NewHTTPError(http.StatusUnauthorized, "token is invalid or has expired")
	case autherr.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, publicMessage(err, "conflict"))
	case autherr.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, publicMessage(err, "not found"))
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"operation":  op,
			"kind":       kind,
			"reason":     autherr.ReasonOf(err),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).WithError(err).Error("request failed")
	}
	if kind == autherr.KindInfrastructure {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// publicMessage returns the message set on the outermost taxonomy error.
// Causes are never included.
func publicMessage(err error, fallback string) string {
	var e *autherr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
