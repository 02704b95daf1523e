package identity

import "errors"

// ErrInvalidToken is returned when a bearer token cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")
