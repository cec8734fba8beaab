package credentials

import (
	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
)

// Components bundles the three primitives the session controller uses.
type Components struct {
	Passwords *PasswordManager
	Ephemeral *EphemeralTokenManager
	Issuer    *TokenIssuer
}

// New builds all credential components from the auth configuration.
func New(cfg *config.AuthConfig, opts ...Option) (*Components, error) {
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Components{
		Passwords: NewPasswordManager(cfg.PasswordHashCost),
		Ephemeral: NewEphemeralTokenManager(opts...),
		Issuer:    issuer,
	}, nil
}
