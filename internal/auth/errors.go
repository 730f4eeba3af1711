package auth

import "errors"

var (
	// ErrInvalidToken covers everything the codec rejects: malformed input,
	// bad signature, expired-by-claim. Callers must not distinguish further.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is the single failure for every business-rule gate of
	// token validation. The HTTP layer maps it to an opaque 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmailNotVerified is the one failure deliberately distinguishable at
	// the HTTP boundary, so clients can route to verification instead of
	// forcing a logout.
	ErrEmailNotVerified = errors.New("email must be verified")
)
