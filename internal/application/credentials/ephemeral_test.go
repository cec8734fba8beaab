package credentials_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/application/credentials"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock shared by the credential tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestEphemeral_IssueAndVerify(t *testing.T) {
	clock := newFakeClock()
	m := credentials.NewEphemeralTokenManager(credentials.WithClock(clock.Now))

	tok, err := m.Issue(20 * time.Minute)
	require.NoError(t, err)
	require.Len(t, tok.Plaintext, 64)
	require.Equal(t, credentials.Digest(tok.Plaintext), tok.Hash)
	require.NotEqual(t, tok.Plaintext, tok.Hash)
	require.Equal(t, clock.Now().Add(20*time.Minute), tok.ExpiresAt)

	require.True(t, m.Verify(tok.Plaintext, &tok.Hash, &tok.ExpiresAt))
	require.False(t, m.Verify("something-else", &tok.Hash, &tok.ExpiresAt))
}

func TestEphemeral_ExpiryIsExclusive(t *testing.T) {
	clock := newFakeClock()
	m := credentials.NewEphemeralTokenManager(credentials.WithClock(clock.Now))

	tok, err := m.Issue(time.Minute)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	require.True(t, m.Verify(tok.Plaintext, &tok.Hash, &tok.ExpiresAt))

	clock.Advance(time.Second)
	require.False(t, m.Verify(tok.Plaintext, &tok.Hash, &tok.ExpiresAt))
}

func TestEphemeral_MissingFieldsNeverVerify(t *testing.T) {
	m := credentials.NewEphemeralTokenManager()
	tok, err := m.Issue(time.Minute)
	require.NoError(t, err)

	empty := ""
	require.False(t, m.Verify(tok.Plaintext, nil, &tok.ExpiresAt))
	require.False(t, m.Verify(tok.Plaintext, &tok.Hash, nil))
	require.False(t, m.Verify(tok.Plaintext, &empty, &tok.ExpiresAt))
	require.False(t, m.Verify("", &tok.Hash, &tok.ExpiresAt))
}

func TestEphemeral_TokensAreUnique(t *testing.T) {
	m := credentials.NewEphemeralTokenManager()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := m.Issue(time.Minute)
		require.NoError(t, err)
		_, dup := seen[tok.Plaintext]
		require.False(t, dup)
		seen[tok.Plaintext] = struct{}{}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestEphemeral_IssueErrors(t *testing.T) {
	_, err := credentials.NewEphemeralTokenManager().Issue(0)
	require.ErrorIs(t, err, autherr.ErrValidation)

	_, err = credentials.NewEphemeralTokenManager(credentials.WithRandom(failingReader{})).Issue(time.Minute)
	require.ErrorIs(t, err, autherr.ErrInfrastructure)

	fixed := credentials.NewEphemeralTokenManager(credentials.WithRandom(bytes.NewReader(make([]byte, 32))))
	tok, err := fixed.Issue(time.Minute)
	require.NoError(t, err)
	require.Equal(t, "0000000000000000000000000000000000000000000000000000000000000000", tok.Plaintext)
}

func TestMatchDigest(t *testing.T) {
	d := credentials.Digest("abc")
	require.True(t, credentials.MatchDigest("abc", d))
	require.False(t, credentials.MatchDigest("abd", d))
	require.False(t, credentials.MatchDigest("", d))
	require.False(t, credentials.MatchDigest("abc", ""))
}
