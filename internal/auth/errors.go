package auth

import "errors"

var (
	ErrNotConfigured = errors.New("auth not configured")
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidRole   = errors.New("invalid role")
	ErrForbidden     = errors.New("forbidden")
)
