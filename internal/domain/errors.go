package domain

import "errors"

var (
	// ErrNotAuthorized is returned when a verify call comes from an email
	// that is not in the configured verifier set.
	ErrNotAuthorized = errors.New("verifier not authorized")

	// ErrTokenNotFound is returned when a verification token is unknown or
	// was already consumed.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrTokenExpired is returned when a verification token is past its TTL.
	// Detecting expiry purges the stale entry.
	ErrTokenExpired = errors.New("verification token expired")

	// ErrInvalidEmail is returned for syntactically invalid email input.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidDestination is returned when a post-SSO destination falls
	// outside the allowed help-center subtree.
	ErrInvalidDestination = errors.New("invalid return_to destination")

	// ErrNoSigningSecret is returned when token issuance is attempted
	// without a configured shared secret.
	ErrNoSigningSecret = errors.New("sso signing secret not configured")

	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketAccessDenied = errors.New("access denied to ticket")
)
