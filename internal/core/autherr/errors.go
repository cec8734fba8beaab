// Package autherr defines the error taxonomy shared by the credential
// components, the session controller and the stores behind them.
package autherr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the coarse category callers branch on.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindInvalidCredential     Kind = "invalid_credential"
	KindUnauthorized          Kind = "unauthorized"
	KindInvalidOrExpiredToken Kind = "invalid_or_expired_token"
	KindConflict              Kind = "conflict"
	KindNotFound              Kind = "not_found"
	KindInfrastructure        Kind = "infrastructure"
)

// Reason refines a Kind. Token verification always sets one of Expired,
// Malformed or InvalidSignature.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonExpired          Reason = "expired"
	ReasonMalformed        Reason = "malformed"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonAlreadyVerified  Reason = "already_verified"
	ReasonDuplicate        Reason = "duplicate"
	ReasonTimeout          Reason = "timeout"
	ReasonUnavailable      Reason = "unavailable"
)

// Error is the single concrete error type of the taxonomy.
type Error struct {
	Kind    Kind
	Reason  Reason
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
		if e.Reason != ReasonNone {
			msg += " (" + string(e.Reason) + ")"
		}
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, and by reason when the target sets one.
// This lets callers write errors.Is(err, autherr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

// Sentinels for errors.Is.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrInvalidCredential     = &Error{Kind: KindInvalidCredential}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInfrastructure        = &Error{Kind: KindInfrastructure}

	// Access and refresh token rejections. Ephemeral tokens never carry these.
	ErrExpired          = &Error{Kind: KindUnauthorized, Reason: ReasonExpired}
	ErrMalformed        = &Error{Kind: KindUnauthorized, Reason: ReasonMalformed}
	ErrInvalidSignature = &Error{Kind: KindUnauthorized, Reason: ReasonInvalidSignature}
	ErrAlreadyVerified  = &Error{Kind: KindConflict, Reason: ReasonAlreadyVerified}
)

func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func InvalidCredential(op string) *Error {
	return &Error{Kind: KindInvalidCredential, Op: op, Message: "invalid credentials"}
}

// Unauthorized hides the cause from the message but keeps it in the chain
// for logging.
func Unauthorized(op string, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: "unauthorized", Err: cause}
}

// Token builds an access or refresh token verification failure with the
// given reason.
func Token(op string, reason Reason, cause error) *Error {
	return &Error{Kind: KindUnauthorized, Reason: reason, Op: op, Message: "unauthorized", Err: cause}
}

func InvalidOrExpiredToken(op string) *Error {
	return &Error{Kind: KindInvalidOrExpiredToken, Op: op, Message: "token is invalid or has expired"}
}

func Conflict(op string, reason Reason, message string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// Infrastructure wraps a store, mail or crypto failure. Context deadline and
// cancellation are tagged as timeouts.
func Infrastructure(op string, err error) *Error {
	reason := ReasonUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reason = ReasonTimeout
	}
	return &Error{Kind: KindInfrastructure, Reason: reason, Op: op, Err: err}
}

// Classify returns err unchanged when it already belongs to the taxonomy and
// wraps it as Infrastructure otherwise.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Infrastructure(op, err)
}

// KindOf returns the kind of the outermost *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the reason of the outermost *Error in the chain.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

// IsRetryable reports whether the failure is transient and the caller may
// retry the same request.
func IsRetryable(err error) bool {
	return KindOf(err) == KindInfrastructure
}
