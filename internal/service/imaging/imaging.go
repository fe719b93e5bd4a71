// Package imaging decodes uploaded photographs and encodes derived images.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"exposureserver/internal/service/exposure"
)

// Decoded is an uploaded photograph ready for analysis.
type Decoded struct {
	Image       image.Image
	Format      string
	Orientation int
}

// DefaultMaxPixels caps the decoded size of an upload (about 40 megapixels).
const DefaultMaxPixels = 40_000_000

// Decode reads any registered raster format with the DefaultMaxPixels budget.
func Decode(data []byte) (*Decoded, error) {
	return DecodeWithLimit(data, DefaultMaxPixels)
}

// DecodeWithLimit reads any registered raster format and rotates JPEGs
// upright according to their EXIF orientation tag. The header is checked
// first; images with more than maxPixels pixels are rejected before any
// pixel buffer is allocated. A non-positive maxPixels means DefaultMaxPixels.
func DecodeWithLimit(data []byte, maxPixels int) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", exposure.ErrInvalidImage)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exposure.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", exposure.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", exposure.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exposure.ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %dx%d", exposure.ErrInvalidImage, b.Dx(), b.Dy())
	}

	orientation := 1
	if format == "jpeg" {
		orientation = Orientation(data)
		img = ApplyOrientation(img, orientation)
	}

	return &Decoded{Image: img, Format: format, Orientation: orientation}, nil
}

// Orientation returns the EXIF orientation of JPEG data, or 1 when absent.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// ApplyOrientation returns img transformed so that EXIF orientation o becomes 1.
func ApplyOrientation(img image.Image, o int) image.Image {
	if o <= 1 || o > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// EncodePNG encodes img losslessly so overlay tints are preserved exactly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps PNG bytes for direct use in an <img> tag.
func DataURI(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}
