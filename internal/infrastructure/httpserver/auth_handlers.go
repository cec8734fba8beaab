package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/httpserver/helpers"
)

// apiResponse is the envelope every successful auth response uses.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: message, Success: status < 400})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

func (s *Server) register(c echo.Context) error {
	var req user.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := s.authSvc.Register(c.Request().Context(), &req)
	if err != nil {
		return s.authError(c, "register", err)
	}
	recordAuthOutcome("register", nil)

	msg := "User registered successfully and verification email has been sent"
	if !result.Delivery.Delivered {
		msg = "User registered successfully but the verification email could not be sent; request a new one after logging in"
	}
	return respond(c, http.StatusCreated, result, msg)
}

func (s *Server) login(c echo.Context) error {
	var req auth.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := s.authSvc.Login(c.Request().Context(), &req)
	if err != nil {
		return s.authError(c, "login", err)
	}
	recordAuthOutcome("login", nil)

	s.setTokenCookies(c, result.Tokens)
	return respond(c, http.StatusOK, result, "User logged in successfully")
}

func (s *Server) refreshToken(c echo.Context) error {
	var req auth.RefreshRequest
	// The token may arrive only as a cookie, with no body at all.
	_ = c.Bind(&req)

	token, err := helpers.GetRefreshTokenFromContext(c, req.Token())
	if err != nil {
		return err
	}

	pair, err := s.authSvc.Refresh(c.Request().Context(), token)
	if err != nil {
		return s.authError(c, "refresh", err)
	}
	recordAuthOutcome("refresh", nil)

	s.setTokenCookies(c, pair)
	return respond(c, http.StatusOK, pair, "Access token refreshed")
}

func (s *Server) logout(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := s.authSvc.Logout(c.Request().Context(), userID); err != nil {
		return s.authError(c, "logout", err)
	}
	recordAuthOutcome("logout", nil)

	s.clearTokenCookies(c)
	return respond(c, http.StatusOK, map[string]any{}, "User logged out")
}

func (s *Server) currentUser(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	u, err := s.authSvc.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return s.authError(c, "current_user", err)
	}
	return respond(c, http.StatusOK, u, "Current user fetched successfully")
}

func (s *Server) verifyEmail(c echo.Context) error {
	token := c.Param("verificationToken")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email verification token is missing")
	}

	u, err := s.authSvc.CompleteEmailVerification(c.Request().Context(), token)
	if err != nil {
		return s.authError(c, "verify_email", err)
	}
	recordAuthOutcome("verify_email", nil)

	return respond(c, http.StatusOK, map[string]any{"user": u, "is_email_verified": true}, "Email is verified")
}

func (s *Server) resendEmailVerification(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	report, err := s.authSvc.RequestEmailVerification(c.Request().Context(), userID)
	if err != nil {
		return s.authError(c, "resend_verification", err)
	}
	recordAuthOutcome("resend_verification", nil)

	msg := "Mail has been sent to your email id"
	if !report.Delivered {
		msg = "A new verification token was created but the email could not be sent"
	}
	return respond(c, http.StatusOK, report, msg)
}

func (s *Server) forgotPassword(c echo.Context) error {
	var req user.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	report, err := s.authSvc.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return s.authError(c, "forgot_password", err)
	}
	recordAuthOutcome("forgot_password", nil)

	msg := "Password reset mail has been sent on your mail id"
	if !report.Delivered {
		msg = "A password reset token was created but the email could not be sent"
	}
	return respond(c, http.StatusOK, report, msg)
}

func (s *Server) resetPassword(c echo.Context) error {
	token := c.Param("resetToken")
	var req user.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.authSvc.CompletePasswordReset(c.Request().Context(), token, req.NewPassword); err != nil {
		return s.authError(c, "reset_password", err)
	}
	recordAuthOutcome("reset_password", nil)

	s.clearTokenCookies(c)
	return respond(c, http.StatusOK, map[string]any{}, "Password reset successfully")
}

func (s *Server) changePassword(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}
	var req user.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.authSvc.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return s.authError(c, "change_password", err)
	}
	recordAuthOutcome("change_password", nil)

	s.clearTokenCookies(c)
	return respond(c, http.StatusOK, map[string]any{}, "Password changed successfully")
}
