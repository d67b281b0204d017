package render

import (
	"context"
	"image/color"

	"github.com/gdamore/tcell/v2"
)

// TerminalCanvas draws the map on a tcell screen: every cell is a sample of
// the background image and glyphs keep the cell's background colour.
type TerminalCanvas struct {
	screen    tcell.Screen
	newScreen func() (tcell.Screen, error)
}

// NewTerminalCanvas returns a canvas on the controlling terminal. The screen
// is acquired on Open, so a missing terminal surfaces as an Open error.
func NewTerminalCanvas() *TerminalCanvas {
	return &TerminalCanvas{newScreen: tcell.NewScreen}
}

// NewSimulationCanvas returns a headless canvas of cols x rows cells.
func NewSimulationCanvas(cols, rows int) *TerminalCanvas {
	return &TerminalCanvas{newScreen: func() (tcell.Screen, error) {
		s := tcell.NewSimulationScreen("UTF-8")
		if err := s.Init(); err != nil {
			return nil, err
		}
		s.SetSize(cols, rows)
		return s, nil
	}}
}

// Screen exposes the underlying tcell screen, nil before Open.
func (t *TerminalCanvas) Screen() tcell.Screen {
	return t.screen
}

// Open acquires and initializes the screen.
func (t *TerminalCanvas) Open() error {
	if t.screen != nil {
		return nil
	}
	s, err := t.newScreen()
	if err != nil {
		return err
	}
	if _, sim := s.(tcell.SimulationScreen); !sim {
		if err := s.Init(); err != nil {
			return err
		}
	}
	s.EnableMouse()
	s.HideCursor()
	s.Clear()
	t.screen = s
	return nil
}

// Size returns the screen size in cells.
func (t *TerminalCanvas) Size() (int, int) {
	if t.screen == nil {
		return 0, 0
	}
	return t.screen.Size()
}

// Fill paints the cell background.
func (t *TerminalCanvas) Fill(col, row int, c color.Color) {
	t.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault.Background(toTcell(c)))
}

// Glyph draws r in fg over the cell's current background.
func (t *TerminalCanvas) Glyph(col, row int, r rune, fg color.Color) {
	_, _, style, _ := t.screen.GetContent(col, row)
	t.screen.SetContent(col, row, r, nil, style.Foreground(toTcell(fg)))
}

// Show repaints every cell. Console reports share the terminal, so a
// diff-only flush would leave their text on screen.
func (t *TerminalCanvas) Show() {
	t.screen.Sync()
}

// WaitClose polls terminal events until a mouse click, Esc, q or Ctrl-C.
func (t *TerminalCanvas) WaitClose(ctx context.Context, onResize func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			switch ev := t.screen.PollEvent().(type) {
			case nil:
				// screen finalized
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return
				}
			case *tcell.EventMouse:
				if ev.Buttons()&tcell.Button1 != 0 {
					return
				}
			case *tcell.EventResize:
				t.screen.Sync()
				if onResize != nil {
					onResize()
				}
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close restores the terminal.
func (t *TerminalCanvas) Close() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

func toTcell(c color.Color) tcell.Color {
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
