package credentials_test

import (
	"testing"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/auth"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, clock *fakeClock) *credentials.TokenIssuer {
	t.Helper()
	iss, err := credentials.NewTokenIssuer(credentials.TokenIssuerConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}, credentials.WithClock(clock.Now))
	require.NoError(t, err)
	return iss
}

func TestNewTokenIssuer_ConfigErrors(t *testing.T) {
	_, err := credentials.NewTokenIssuer(credentials.TokenIssuerConfig{AccessSecret: "", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = credentials.NewTokenIssuer(credentials.TokenIssuerConfig{AccessSecret: "same", RefreshSecret: "same", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = credentials.NewTokenIssuer(credentials.TokenIssuerConfig{AccessSecret: "a", RefreshSecret: "r", AccessTTL: 0, RefreshTTL: time.Hour})
	require.Error(t, err)
}

func TestIssuer_AccessRoundTrip(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)
	uid := uuid.New()

	tok, exp, err := iss.IssueAccessToken(uid, user.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, clock.Now().Add(15*time.Minute), exp)

	claims, err := iss.VerifyAccessToken(tok)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uid, got)
	require.Equal(t, user.RoleAdmin, claims.Role)
	require.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
}

func TestIssuer_AccessExpires(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)

	tok, _, err := iss.IssueAccessToken(uuid.New(), user.RoleMember)
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	_, err = iss.VerifyAccessToken(tok)
	require.ErrorIs(t, err, autherr.ErrExpired)
	require.ErrorIs(t, err, autherr.ErrUnauthorized)
	require.NotErrorIs(t, err, autherr.ErrInvalidOrExpiredToken)
}

func TestIssuer_RefreshTokensAreDistinct(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)
	uid := uuid.New()

	rt1, _, err := iss.IssueRefreshToken(uid)
	require.NoError(t, err)
	rt2, _, err := iss.IssueRefreshToken(uid)
	require.NoError(t, err)
	require.NotEqual(t, rt1, rt2)

	claims, err := iss.VerifyRefreshToken(rt2)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
	require.Empty(t, claims.Role)
}

func TestIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)
	uid := uuid.New()

	access, _, err := iss.IssueAccessToken(uid, user.RoleMember)
	require.NoError(t, err)
	refresh, _, err := iss.IssueRefreshToken(uid)
	require.NoError(t, err)

	_, err = iss.VerifyRefreshToken(access)
	require.ErrorIs(t, err, autherr.ErrInvalidSignature)
	_, err = iss.VerifyAccessToken(refresh)
	require.ErrorIs(t, err, autherr.ErrInvalidSignature)
}

func TestIssuer_Malformed(t *testing.T) {
	iss := newIssuer(t, newFakeClock())

	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b"} {
		_, err := iss.VerifyAccessToken(tok)
		require.ErrorIs(t, err, autherr.ErrMalformed, tok)
	}
}

func TestIssuer_RejectsForeignAlgorithm(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)

	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.VerifyAccessToken(tok)
	require.ErrorIs(t, err, autherr.ErrInvalidSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = iss.VerifyAccessToken(hs512)
	require.ErrorIs(t, err, autherr.ErrInvalidSignature)
}

func TestIssuer_MissingSubjectIsMalformed(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)

	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = iss.VerifyAccessToken(tok)
	require.ErrorIs(t, err, autherr.ErrMalformed)
}

func TestIssuer_IssuePair(t *testing.T) {
	clock := newFakeClock()
	iss := newIssuer(t, clock)
	u := &user.User{ID: uuid.New(), Role: user.RoleMember}

	pair, err := iss.IssuePair(u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
}
