// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Backend-related errors.
var (
	ErrBackendUnavailable = errors.New("code search backend is unavailable")
	ErrMalformedResponse  = errors.New("malformed response from code search backend")
)

// Target resolution errors.
var (
	ErrSignatureNotFound  = errors.New("no signature found for symbol")
	ErrSourceRootNotFound = errors.New("unable to locate source root")
	ErrOutsideSourceRoot  = errors.New("path is outside the source root")
)

// Cache errors.
var (
	ErrCacheClosed = errors.New("cache is closed")
)
