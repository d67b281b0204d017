package api

import "errors"

// Sentinel kinds for status API errors.
var (
	ErrServe            = errors.New("status server failed")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrNoStats          = errors.New("stats not available")
)
