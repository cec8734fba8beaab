// Package credentials holds the pure credential primitives: password hashing,
// single-use ephemeral tokens and signed access/refresh tokens. Nothing here
// touches the user store.
package credentials

import (
	"errors"
	"sync"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/autherr"
	"golang.org/x/crypto/bcrypt"
)

// PasswordManager hashes and verifies passwords with bcrypt.
type PasswordManager struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordManager clamps cost into bcrypt's accepted range; a non-positive
// cost selects bcrypt.DefaultCost.
func NewPasswordManager(cost int) *PasswordManager {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordManager{cost: cost}
}

func (p *PasswordManager) Cost() int { return p.cost }

// Hash returns a salted bcrypt hash of plaintext.
func (p *PasswordManager) Hash(plaintext string) (string, error) {
	const op = "password.Hash"
	if plaintext == "" {
		return "", autherr.Validation(op, "password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", autherr.Validation(op, "password is too long")
		}
		return "", autherr.Infrastructure(op, err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (p *PasswordManager) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ChangePassword verifies oldPassword against currentHash and returns the hash
// of newPassword.
func (p *PasswordManager) ChangePassword(currentHash, oldPassword, newPassword string) (string, error) {
	if !p.Verify(oldPassword, currentHash) {
		return "", autherr.InvalidCredential("password.ChangePassword")
	}
	return p.Hash(newPassword)
}

// NeedsRehash reports whether hash was produced with a different cost than
// the configured one.
func (p *PasswordManager) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost != p.cost
}

// VerifyDummy burns the same bcrypt work as a real Verify. Login calls it when
// the account does not exist so both failure paths take similar time.
func (p *PasswordManager) VerifyDummy(plaintext string) {
	p.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), p.cost)
		if err == nil {
			p.dummy = string(h)
		}
	})
	_ = p.Verify(plaintext, p.dummy)
}
