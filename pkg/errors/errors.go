// Package errors defines the error kinds shared across the gateway core.
//
// Every failure that crosses a component boundary is wrapped in an *Error
// carrying one of the kinds below, so the HTTP layer can map kind to status
// code in one place instead of scattering http.Error calls with ad hoc
// codes throughout the codebase.
package errors

import "fmt"

// Kind identifies the category of a failure.
type Kind string

// Error kinds, one per failure class in the authorization engine.
const (
	ErrAuthMissing           Kind = "auth_missing"
	ErrAuthInvalidSignature  Kind = "auth_invalid_signature"
	ErrAuthExpired           Kind = "auth_expired"
	ErrAuthMalformed         Kind = "auth_malformed"
	ErrAuthzDenied           Kind = "authz_denied"
	ErrPolicyEmpty           Kind = "policy_empty"
	ErrUpstreamProvider      Kind = "upstream_provider"
	ErrRateLimited           Kind = "rate_limited"
	ErrVaultCorrupt          Kind = "vault_corrupt"
	ErrConfigMissing         Kind = "config_missing"
	ErrInvalidArgument       Kind = "invalid_argument"
	ErrInternal              Kind = "internal"
)

// Error is the single error type used across the core. It carries a Kind so
// callers can branch on category without string matching, a human message,
// and an optional wrapped cause.
type Error struct {
	Type    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Type: kind, Message: message, Cause: cause}
}

// NewAuthMissingError indicates no credential was supplied on the request.
func NewAuthMissingError(message string, cause error) *Error {
	return New(ErrAuthMissing, message, cause)
}

// NewAuthInvalidSignatureError indicates a MAC or JWT signature mismatch.
func NewAuthInvalidSignatureError(message string, cause error) *Error {
	return New(ErrAuthInvalidSignature, message, cause)
}

// NewAuthExpiredError indicates a token or cookie is past its expiry.
func NewAuthExpiredError(message string, cause error) *Error {
	return New(ErrAuthExpired, message, cause)
}

// NewAuthMalformedError indicates a token failed to parse.
func NewAuthMalformedError(message string, cause error) *Error {
	return New(ErrAuthMalformed, message, cause)
}

// NewAuthzDeniedError indicates scope resolution returned deny.
func NewAuthzDeniedError(message string, cause error) *Error {
	return New(ErrAuthzDenied, message, cause)
}

// NewPolicyEmptyError indicates the principal carries no scopes at all.
func NewPolicyEmptyError(message string, cause error) *Error {
	return New(ErrPolicyEmpty, message, cause)
}

// NewUpstreamProviderError indicates a JWKS fetch or token endpoint call failed.
func NewUpstreamProviderError(message string, cause error) *Error {
	return New(ErrUpstreamProvider, message, cause)
}

// NewRateLimitedError indicates the issuer quota was exceeded.
func NewRateLimitedError(message string, cause error) *Error {
	return New(ErrRateLimited, message, cause)
}

// NewVaultCorruptError indicates a stored token record failed to parse.
func NewVaultCorruptError(message string, cause error) *Error {
	return New(ErrVaultCorrupt, message, cause)
}

// NewConfigMissingError indicates the scope policy document is absent.
func NewConfigMissingError(message string, cause error) *Error {
	return New(ErrConfigMissing, message, cause)
}

// NewInvalidArgumentError indicates a caller-supplied value failed validation.
func NewInvalidArgumentError(message string, cause error) *Error {
	return New(ErrInvalidArgument, message, cause)
}

// NewInternalError indicates an engine fault unrelated to caller input.
func NewInternalError(message string, cause error) *Error {
	return New(ErrInternal, message, cause)
}
