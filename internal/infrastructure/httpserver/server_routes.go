package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	api.GET("/healthcheck", s.healthCheck)

	limited := s.middleware.RateLimit.Handler()
	requireJWT := s.middleware.JWT.RequireJWT()

	auth := api.Group("/auth")
	auth.POST("/register", s.register, limited)
	auth.POST("/login", s.login, limited)
	auth.POST("/refresh-token", s.refreshToken, limited)
	auth.GET("/verify-email/:verificationToken", s.verifyEmail)
	auth.POST("/forgot-password", s.forgotPassword, limited)
	auth.POST("/reset-password/:resetToken", s.resetPassword, limited)

	auth.POST("/logout", s.logout, requireJWT)
	auth.GET("/current-user", s.currentUser, requireJWT)
	auth.POST("/change-password", s.changePassword, requireJWT)
	auth.POST("/resend-email-verification", s.resendEmailVerification, requireJWT)
}
