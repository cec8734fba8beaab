package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
)

const ephemeralTokenBytes = 32

// EphemeralToken is a freshly issued single-use token. Only Hash and
// ExpiresAt are persisted; Plaintext goes to the user by mail.
type EphemeralToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// Option configures the clock and entropy source of the token managers.
type Option func(*options)

type options struct {
	now    func() time.Time
	random io.Reader
}

func defaultOptions() options {
	return options{now: time.Now, random: rand.Reader}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithRandom(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.random = r
		}
	}
}

// EphemeralTokenManager issues and checks email verification and password
// reset tokens. It is stateless; callers persist and clear the digest.
type EphemeralTokenManager struct {
	opts options
}

func NewEphemeralTokenManager(opts ...Option) *EphemeralTokenManager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &EphemeralTokenManager{opts: o}
}

// Issue returns a new random token valid for ttl.
func (m *EphemeralTokenManager) Issue(ttl time.Duration) (*EphemeralToken, error) {
	const op = "ephemeral.Issue"
	if ttl <= 0 {
		return nil, autherr.Validation(op, "token lifetime must be positive")
	}
	buf := make([]byte, ephemeralTokenBytes)
	if _, err := io.ReadFull(m.opts.random, buf); err != nil {
		return nil, autherr.Infrastructure(op, fmt.Errorf("failed to read random bytes: %w", err))
	}
	plaintext := hex.EncodeToString(buf)
	return &EphemeralToken{
		Plaintext: plaintext,
		Hash:      Digest(plaintext),
		ExpiresAt: m.opts.now().Add(ttl),
	}, nil
}

// Verify reports whether presented matches storedHash and the expiry is still
// in the future. Missing fields never verify.
func (m *EphemeralTokenManager) Verify(presented string, storedHash *string, expiry *time.Time) bool {
	if presented == "" || storedHash == nil || *storedHash == "" || expiry == nil {
		return false
	}
	if !MatchDigest(presented, *storedHash) {
		return false
	}
	return m.opts.now().Before(*expiry)
}

// Digest is the hex SHA-256 of a token; only digests are ever stored.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchDigest compares Digest(presented) with storedDigest in constant time.
func MatchDigest(presented, storedDigest string) bool {
	if presented == "" || storedDigest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(presented)), []byte(storedDigest)) == 1
}
