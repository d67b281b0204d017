package render

import "math"

// Point is a position in world coordinates. On the tracker surface X is
// longitude and Y is latitude.
type Point struct {
	X, Y float64
}

// Bounds is a world-coordinate rectangle given by its lower-left and
// upper-right corners.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// GeographicBounds spans the whole globe: lon [-180,180], lat [-90,90].
func GeographicBounds() Bounds {
	return Bounds{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
}

// Valid reports whether the rectangle has positive area.
func (b Bounds) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

// Contains reports whether p lies inside or on the rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Project maps p onto a cols x rows grid. Row 0 is the top edge (MaxY).
// ok is false when p falls outside the grid.
func (b Bounds) Project(p Point, cols, rows int) (col, row int, ok bool) {
	if cols <= 0 || rows <= 0 || !b.Contains(p) {
		return 0, 0, false
	}
	fx := (p.X - b.MinX) / (b.MaxX - b.MinX)
	fy := (b.MaxY - p.Y) / (b.MaxY - b.MinY)
	col = min(int(math.Floor(fx*float64(cols))), cols-1)
	row = min(int(math.Floor(fy*float64(rows))), rows-1)
	return col, row, true
}
