package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError carries user-correctable problems. Messages holds every
// violation found, so the caller can show the complete list in one pass.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// Reason classifies why an authentication attempt was refused. Reasons are
// for structured logging; the HTTP layer must map UnknownEmail and
// BadPassword to the same generic message so account existence never leaks.
type Reason string

const (
	ReasonUnknownEmail    Reason = "unknown_email"
	ReasonBadPassword     Reason = "bad_password"
	ReasonBadCode         Reason = "bad_code"
	ReasonNoCredential    Reason = "no_credential"
	ReasonHasCredential   Reason = "has_credential"
	ReasonDisabled        Reason = "disabled"
	ReasonUnconfirmed     Reason = "unconfirmed"
	ReasonLinkExhausted   Reason = "link_attempts_exhausted"
)

type AuthenticationError struct {
	Reason Reason
}

func (e *AuthenticationError) Error() string {
	return "authentication refused: " + string(e.Reason)
}

// AuthorizationError signals a permission or protected-account violation.
// Unlike authentication failures its message is explicit: the caller is
// already authenticated, so there is no enumeration risk.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// ConfigurationError covers missing server-side secrets. It is logged in
// full and shown to the user as a generic failure.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

var (
	// ErrTokenExpired and ErrTokenInvalid classify time-limited token
	// failures.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNoPendingFlow means a second-step operation was called without the
	// staged state its first step produces (session expired, or the flow
	// was already consumed).
	ErrNoPendingFlow = errors.New("no pending flow")
)
