// Package render draws the tracked vehicle over a world map.
//
// A Surface keeps turtle-style state: one icon with a pen that is raised
// before every move, static markers, and any strokes drawn with the pen
// down. World coordinates are (longitude, latitude).
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/okian/isstrack/pkg/logger"
	"github.com/okian/isstrack/pkg/metrics"
)

const (
	dotGlyph = '●'
)

// ColorYellow is the observer marker colour.
var ColorYellow = color.RGBA{R: 0xff, G: 0xff, A: 0xff} //nolint:gochecknoglobals // palette constant

// Marker is a static dot with an optional label.
type Marker struct {
	At    Point
	Color color.Color
	Label string
}

// Segment is a line drawn while the pen was down.
type Segment struct {
	From, To Point
}

// Surface is the map window. It is created once per run and mutated on
// every poll. All methods are safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	cfg    Config
	canvas Canvas
	logger logger.Logger

	background image.Image
	iconTint   color.Color
	iconGlyph  rune

	icon    Point
	placed  bool
	penDown bool
	trail   []Segment
	markers []Marker
	status  string
	closed  bool
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// Initialize loads the assets named in cfg, opens the canvas and paints the
// background. The icon starts hidden with its pen raised.
func Initialize(cfg Config, canvas Canvas, opts ...Option) (*Surface, error) {
	if !cfg.Bounds.Valid() {
		return nil, graphicsErr("initialize", fmt.Errorf("invalid world bounds %+v", cfg.Bounds))
	}
	if canvas == nil {
		return nil, graphicsErr("initialize", ErrDisplayUnavailable)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, graphicsErr("initialize", fmt.Errorf("invalid canvas size %dx%d", cfg.Width, cfg.Height))
	}

	s := &Surface{
		cfg:    cfg,
		canvas: canvas,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	bg, err := loadImage(cfg.MapPath)
	if err != nil {
		metrics.RecordRenderError("load_map")
		return nil, graphicsErr("load map", err)
	}
	icon, err := loadImage(cfg.IconPath)
	if err != nil {
		metrics.RecordRenderError("load_icon")
		return nil, graphicsErr("load icon", err)
	}
	s.background = bg
	s.iconTint = tint(icon)
	s.iconGlyph = headingGlyph(cfg.Heading)

	if err := canvas.Open(); err != nil {
		metrics.RecordRenderError("open")
		return nil, graphicsErr("open", fmt.Errorf("%w: %v", ErrDisplayUnavailable, err))
	}

	s.redrawLocked()
	s.logger.Info(context.Background(), "map surface ready",
		logger.String("map", cfg.MapPath),
		logger.String("icon", cfg.IconPath),
	)
	return s, nil
}

// PlaceMarker draws a static dot at lat/lon with an optional label centred
// above it.
func (s *Surface) PlaceMarker(lat, lon float64, c color.Color, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return graphicsErr("place marker", ErrSurfaceClosed)
	}
	if c == nil {
		c = color.White
	}
	s.markers = append(s.markers, Marker{At: Point{X: lon, Y: lat}, Color: c, Label: label})
	s.redrawLocked()
	return nil
}

// MoveIcon raises the pen and moves the icon to lat/lon, so consecutive
// moves never leave a trail.
func (s *Surface) MoveIcon(lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		metrics.RecordRenderError("move_icon")
		return graphicsErr("move icon", ErrSurfaceClosed)
	}
	s.penDown = false
	s.gotoLocked(Point{X: lon, Y: lat})
	s.redrawLocked()
	metrics.RecordIconMove()
	return nil
}

// gotoLocked moves the icon, recording a stroke only when the pen is down.
func (s *Surface) gotoLocked(to Point) {
	if s.penDown && s.placed {
		s.trail = append(s.trail, Segment{From: s.icon, To: to})
	}
	s.icon = to
	s.placed = true
}

// Icon returns the icon's world position and whether it has been placed.
func (s *Surface) Icon() (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.icon, s.placed
}

// LowerPen puts the icon's pen down. The next MoveIcon raises it again.
func (s *Surface) LowerPen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.penDown = true
}

// PenDown reports the pen state of the icon.
func (s *Surface) PenDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.penDown
}

// Trail returns the segments travelled with the pen down.
func (s *Surface) Trail() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Segment(nil), s.trail...)
}

// SetStatus shows text on the bottom row of the map, replacing the previous
// status line.
func (s *Surface) SetStatus(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return graphicsErr("set status", ErrSurfaceClosed)
	}
	s.status = text
	s.redrawLocked()
	return nil
}

// Status returns the current status line.
func (s *Surface) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Markers returns the static markers.
func (s *Surface) Markers() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Marker(nil), s.markers...)
}

// RunEventLoop blocks until the user closes the window or ctx is cancelled.
// The surface is closed on return.
func (s *Surface) RunEventLoop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return graphicsErr("event loop", ErrSurfaceClosed)
	}
	s.mu.Unlock()

	err := s.canvas.WaitClose(ctx, s.redraw)
	s.Close()
	if err != nil && ctx.Err() == nil {
		return graphicsErr("event loop", err)
	}
	return nil
}

// Close releases the canvas. It is safe to call more than once.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.canvas.Close()
}

func (s *Surface) redraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.redrawLocked()
	}
}

// redrawLocked repaints the whole frame: background, markers, icon.
func (s *Surface) redrawLocked() {
	cols, rows := s.canvas.Size()
	if cols <= 0 || rows <= 0 {
		return
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			s.canvas.Fill(col, row, sample(s.background, col, row, cols, rows))
		}
	}
	for _, m := range s.markers {
		col, row, ok := s.cellOf(m.At, cols, rows)
		if !ok {
			continue
		}
		s.canvas.Glyph(col, row, dotGlyph, m.Color)
		if m.Label != "" && row > 0 {
			s.textLocked(col, row-1, m.Label, m.Color, cols)
		}
	}
	if s.placed {
		if col, row, ok := s.cellOf(s.icon, cols, rows); ok {
			s.canvas.Glyph(col, row, s.iconGlyph, s.iconTint)
		}
	}
	if s.status != "" {
		col := 0
		for _, r := range s.status {
			if col >= cols {
				break
			}
			s.canvas.Glyph(col, rows-1, r, color.White)
			col++
		}
	}
	s.canvas.Show()
}

// cellOf projects p onto the logical Width x Height grid, then scales that
// pixel down to a canvas cell.
func (s *Surface) cellOf(p Point, cols, rows int) (col, row int, ok bool) {
	x, y, ok := s.cfg.Bounds.Project(p, s.cfg.Width, s.cfg.Height)
	if !ok {
		return 0, 0, false
	}
	return x * cols / s.cfg.Width, y * rows / s.cfg.Height, true
}

// textLocked writes label centred on col.
func (s *Surface) textLocked(col, row int, label string, c color.Color, cols int) {
	start := col - utf8.RuneCountInString(label)/2
	i := 0
	for _, r := range label {
		x := start + i
		i++
		if x < 0 || x >= cols {
			continue
		}
		s.canvas.Glyph(x, row, r, c)
	}
}

// headingGlyph picks an arrow for the icon heading, 90 degrees being north.
func headingGlyph(deg float64) rune {
	switch int(math.Mod(math.Mod(deg, 360)+360, 360)+45) / 90 % 4 {
	case 0:
		return '►'
	case 1:
		return '▲'
	case 2:
		return '◄'
	default:
		return '▼'
	}
}
