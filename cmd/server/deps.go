package main

import (
	"context"

	goredis "github.com/go-redis/redis/v8"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/services"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/db"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/email"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/health"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/httpserver"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/redis"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/repositories"
)

// app is the fully wired process: the HTTP server plus everything that must
// be closed on exit.
type app struct {
	server  *httpserver.Server
	closers []func() error
	logger  *logrus.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.WithError(err).Warn("error during shutdown")
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{logger: logger}
	var checkers []ports.HealthChecker

	userRepo, err := a.userStore(ctx, cfg, logger, &checkers)
	if err != nil {
		a.Close()
		return nil, err
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			a.Close()
			return nil, oops.Code("REDIS_CONNECT_FAILED").With("operation", "connect to redis").Wrap(err)
		}
		a.closers = append(a.closers, redisClient.Close)
		checkers = append(checkers, health.NewRedisHealthChecker(redisClient))
		logger.Info("Connected to Redis successfully")

		userRepo = repositories.NewCachingUserRepository(userRepo, redis.NewRedisCache(redisClient, "authcache"), cfg.Store.CacheTTL, logger)
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	creds, err := credentials.New(&cfg.Auth)
	if err != nil {
		a.Close()
		return nil, oops.Code("CONFIG_INVALID").With("operation", "build credential components").Wrap(err)
	}
	logger.WithFields(logrus.Fields{
		"password_hash_cost": creds.Passwords.Cost(),
		"access_token_ttl":   cfg.Auth.AccessTokenTTL.String(),
		"refresh_token_ttl":  cfg.Auth.RefreshTokenTTL.String(),
	}).Info("Credential components ready")
	authService := services.NewAuthService(userRepo, mailer, creds, &cfg.Auth, logger)

	deps := httpserver.ServerDeps{
		AuthService:    authService,
		HealthCheckers: checkers,
	}
	if cfg.RateLimit.Enabled {
		var rlRepo ports.RateLimitRepository = repositories.NewRateLimitMemoryRepository()
		if redisClient != nil {
			rlRepo = repositories.NewRateLimitRedisRepository(redisClient)
		}
		deps.RateLimiterService = services.NewRateLimiterService(rlRepo, &services.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
			BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.RateLimit.KeyPrefix,
		}, logger)
	}

	a.server = httpserver.NewServer(&httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
		BodyLimit:      cfg.Server.BodyLimit,
		CookieSecure:   cfg.Server.CookieSecure,
	}, logger, deps)

	return a, nil
}

// userStore opens the configured user store backend and registers its
// health checker and closer.
func (a *app) userStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger, checkers *[]ports.HealthChecker) (ports.UserRepository, error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("Using the in-memory user store; accounts are lost on restart")
		*checkers = append(*checkers, health.NewMemoryStoreChecker())
		return repositories.NewMemoryUserRepository(), nil
	}

	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	a.closers = append(a.closers, database.Close)
	logger.Info("Connected to database successfully")

	if cfg.Store.AutoMigrate {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := database.Migrate(); err != nil {
			return nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	*checkers = append(*checkers, health.NewDBHealthChecker(database))
	return repositories.NewUserRepository(database, logger), nil
}

func newMailer(cfg *config.Config, logger *logrus.Logger) (ports.EmailService, error) {
	if cfg.Email.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set; emails will be logged instead of sent")
		return email.NewLogMailer(logger), nil
	}
	svc, err := email.NewEmailService(&cfg.Email, email.Lifetimes{
		Verification:  cfg.Auth.EmailVerificationTTL,
		PasswordReset: cfg.Auth.PasswordResetTTL,
	}, logger)
	if err != nil {
		return nil, oops.Code("EMAIL_INIT_FAILED").Wrap(err)
	}
	return svc, nil
}
