package auth

import "errors"

// Sign-in failure taxonomy. The service layer returns exactly one of these
// for any failed sign-in so handlers can map them to user-facing responses
// without string matching. Retrying after any of them is safe: no partial
// session is ever stored.
var (
	// ErrInvalidCredentials means the core API rejected the email/password
	// (or ID token) pair. Recovered locally as a form error.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownRole means authentication succeeded but the asserted role is
	// missing or outside the closed set. The account cannot be used.
	ErrUnknownRole = errors.New("account role is missing or unknown")

	// ErrUpstreamUnavailable means the core API could not be reached.
	ErrUpstreamUnavailable = errors.New("authentication service unreachable")

	// ErrUpstreamFailure means the core API answered with a server error.
	ErrUpstreamFailure = errors.New("authentication service failed")

	// ErrUnauthorizedEmail means a password-reset request was made for an
	// email outside the reset allow-list.
	ErrUnauthorizedEmail = errors.New("email not authorized for password reset")

	// ErrSessionNotFound covers missing, expired, and corrupt sessions; to
	// the caller they are all "not signed in".
	ErrSessionNotFound = errors.New("session not found")
)
