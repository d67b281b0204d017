package render

import (
	"context"
	"image/color"
)

// Canvas is the drawing backend behind a Surface. Cells are addressed in
// grid units; the Surface owns the mapping from world coordinates.
type Canvas interface {
	Open() error
	Size() (cols, rows int)
	Fill(col, row int, c color.Color)
	Glyph(col, row int, r rune, fg color.Color)
	Show()
	// WaitClose blocks until the user asks to close the window or ctx ends.
	// onResize is called after the backend has adopted a new size.
	WaitClose(ctx context.Context, onResize func()) error
	Close()
}
