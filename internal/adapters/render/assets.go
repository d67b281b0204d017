package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // map and icon assets ship as GIF
	_ "image/jpeg" // accepted for custom maps
	_ "image/png"  // accepted for custom maps
	"io"
	"io/fs"
	"os"
)

//go:embed assets/iss.gif assets/map.gif
var bundled embed.FS

// bundledAssets maps the stock relative paths to the copies built into the
// binary. They are used only when no such file exists on disk.
var bundledAssets = map[string]string{ //nolint:gochecknoglobals // fixed lookup table
	DefaultIconPath: "assets/iss.gif",
	DefaultMapPath:  "assets/map.gif",
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetInvalid, path, err)
		}
		name, ok := bundledAssets[path]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, path)
		}
		data, err := bundled.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetMissing, path, err)
		}
		return decodeImage(path, bytes.NewReader(data))
	}
	defer func() { _ = f.Close() }()

	return decodeImage(path, f)
}

func decodeImage(path string, r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetInvalid, path, err)
	}
	return img, nil
}

// sample returns the colour of img at the centre of grid cell (col,row).
func sample(img image.Image, col, row, cols, rows int) color.Color {
	b := img.Bounds()
	x := b.Min.X + (2*col+1)*b.Dx()/(2*cols)
	y := b.Min.Y + (2*row+1)*b.Dy()/(2*rows)
	return img.At(x, y)
}

// tint averages the opaque pixels of the icon so its glyph keeps the icon's colour.
func tint(img image.Image) color.Color {
	var r, g, bl, n uint64
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca < 0x8000 {
				continue
			}
			r, g, bl, n = r+uint64(cr), g+uint64(cg), bl+uint64(cb), n+1
		}
	}
	if n == 0 {
		return color.White
	}
	return color.RGBA64{R: uint16(r / n), G: uint16(g / n), B: uint16(bl / n), A: 0xffff}
}
