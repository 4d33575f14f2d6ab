package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification outcomes. These are expected business results, not failures;
// callers branch on them and they must never collapse into a generic error.
var (
	ErrMaxLiveExceeded = errors.New("too many live verifications")
	ErrCodeNotFound    = errors.New("verification code not found")
	ErrCodeActivated   = errors.New("verification code already used")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrPhoneMismatch   = errors.New("phone does not match verification")
	ErrMissingToken    = errors.New("correlation token required")
)
