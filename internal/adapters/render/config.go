package render

// Config describes the map surface. It replaces file-level constants so each
// Surface carries its own assets and geometry.
type Config struct {
	// IconPath is the vehicle icon image (gif, png or jpeg).
	IconPath string
	// MapPath is the world map background image.
	MapPath string
	// Width and Height are the logical canvas size.
	Width  int
	Height int
	// Bounds is the world-coordinate system laid over the canvas.
	Bounds Bounds
	// Heading of the icon in degrees, 90 pointing north.
	Heading float64
}

// Stock asset paths, relative to the working directory. When no file exists
// there the copies built into the binary are used.
const (
	DefaultIconPath = "iss.gif"
	DefaultMapPath  = "map.gif"
)

// Canvas geometry used by the tracker.
const (
	DefaultWidth   = 720
	DefaultHeight  = 360
	DefaultHeading = 90
)

// DefaultConfig mirrors the tracker's stock assets: iss.gif over map.gif,
// 720x360 with world coordinates equal to longitude/latitude.
func DefaultConfig() Config {
	return Config{
		IconPath: DefaultIconPath,
		MapPath:  DefaultMapPath,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Bounds:   GeographicBounds(),
		Heading:  DefaultHeading,
	}
}
