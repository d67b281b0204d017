package opennotify

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNetwork    = errors.New("network error")
	ErrDecode     = errors.New("decode response failed")
	ErrParse      = errors.New("parse numeric field failed")
	ErrOutOfRange = errors.New("value out of range")
)

// NetworkError reports a transport failure or a non-2xx response from the API.
// StatusCode is zero when the request never produced a response.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes every NetworkError match ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
