package render

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrAssetMissing       = errors.New("image asset missing")
	ErrAssetInvalid       = errors.New("image asset unreadable")
	ErrDisplayUnavailable = errors.New("display unavailable")
	ErrSurfaceClosed      = errors.New("surface closed")
)

// GraphicsError reports a failure to initialize or draw on the surface.
type GraphicsError struct {
	Op  string
	Err error
}

func (e *GraphicsError) Error() string {
	return fmt.Sprintf("graphics %s: %v", e.Op, e.Err)
}

func (e *GraphicsError) Unwrap() error { return e.Err }

func graphicsErr(op string, err error) error {
	return &GraphicsError{Op: op, Err: err}
}
