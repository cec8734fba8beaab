package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record. Secret material (password hash,
// refresh token digest, ephemeral token digests) never serializes.
type User struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	Username              string     `json:"username" db:"username"`
	PasswordHash          string     `json:"-" db:"password_hash"`
	Role                  UserRole   `json:"role" db:"role"`
	RefreshTokenHash      string     `json:"-" db:"refresh_token_hash"`
	EmailVerified         bool       `json:"email_verified" db:"email_verified"`
	VerificationTokenHash *string    `json:"-" db:"verification_token_hash"`
	VerificationExpiry    *time.Time `json:"-" db:"verification_expiry"`
	ResetTokenHash        *string    `json:"-" db:"reset_token_hash"`
	ResetExpiry           *time.Time `json:"-" db:"reset_expiry"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
	RoleGuest  UserRole = "guest"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleGuest:
		return true
	default:
		return false
	}
}

// Field names a column the store can look a user up by or clear.
type Field string

const (
	FieldEmail                 Field = "email"
	FieldUsername              Field = "username"
	FieldVerificationTokenHash Field = "verification_token_hash"
	FieldResetTokenHash        Field = "reset_token_hash"

	// Clearable groups. Verification and Reset clear both the digest and
	// its expiry.
	FieldRefreshToken Field = "refresh_token_hash"
	FieldVerification Field = "verification"
	FieldReset        Field = "reset"
)

// IsLookup reports whether f can be passed to FindByField.
func (f Field) IsLookup() bool {
	switch f {
	case FieldEmail, FieldUsername, FieldVerificationTokenHash, FieldResetTokenHash:
		return true
	}
	return false
}

// IsClearable reports whether f can be passed to ClearFields.
func (f Field) IsClearable() bool {
	switch f {
	case FieldRefreshToken, FieldVerification, FieldReset:
		return true
	}
	return false
}

// Clear resets the fields named by f on u.
func (u *User) Clear(f Field) {
	switch f {
	case FieldRefreshToken:
		u.RefreshTokenHash = ""
	case FieldVerification:
		u.VerificationTokenHash = nil
		u.VerificationExpiry = nil
	case FieldReset:
		u.ResetTokenHash = nil
		u.ResetExpiry = nil
	}
}

// Lookup returns the value of a lookup field, "" when unset.
func (u *User) Lookup(f Field) string {
	switch f {
	case FieldEmail:
		return u.Email
	case FieldUsername:
		return u.Username
	case FieldVerificationTokenHash:
		if u.VerificationTokenHash != nil {
			return *u.VerificationTokenHash
		}
	case FieldResetTokenHash:
		if u.ResetTokenHash != nil {
			return *u.ResetTokenHash
		}
	}
	return ""
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.VerificationTokenHash != nil {
		v := *u.VerificationTokenHash
		c.VerificationTokenHash = &v
	}
	if u.VerificationExpiry != nil {
		v := *u.VerificationExpiry
		c.VerificationExpiry = &v
	}
	if u.ResetTokenHash != nil {
		v := *u.ResetTokenHash
		c.ResetTokenHash = &v
	}
	if u.ResetExpiry != nil {
		v := *u.ResetExpiry
		c.ResetExpiry = &v
	}
	return &c
}

// PublicUser is the sanitized projection returned to clients.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Role          UserRole  `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// NormalizeEmail and NormalizeUsername produce the stored, unique form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RegisterRequest represents the request to create a new account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,password"`
}

// ChangePasswordRequest represents an authenticated password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow; the token travels in the path
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,password"`
}
