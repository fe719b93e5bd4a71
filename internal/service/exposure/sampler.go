// Package exposure measures the brightness and color of a photograph and
// maps the measurements to camera settings.
package exposure

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

const (
	// DefaultGridCols and DefaultGridRows give the sampling grid resolution.
	DefaultGridCols = 20
	DefaultGridRows = 20
)

// ErrInvalidImage is returned for zero-sized or undecodable images.
var ErrInvalidImage = errors.New("invalid image")

// Grid is the cell layout used by both the sampler and the highlight renderer.
type Grid struct {
	Cols int
	Rows int
}

// DefaultGrid returns the 20x20 grid.
func DefaultGrid() Grid {
	return Grid{Cols: DefaultGridCols, Rows: DefaultGridRows}
}

// Fit shrinks the grid so that every cell of bounds holds at least one pixel.
func (g Grid) Fit(bounds image.Rectangle) Grid {
	fitted := g
	if fitted.Cols < 1 {
		fitted.Cols = DefaultGridCols
	}
	if fitted.Rows < 1 {
		fitted.Rows = DefaultGridRows
	}
	if w := bounds.Dx(); w < fitted.Cols {
		fitted.Cols = w
	}
	if h := bounds.Dy(); h < fitted.Rows {
		fitted.Rows = h
	}
	return fitted
}

// Cell returns the pixel rectangle of cell (row, col). Cell sizes use integer
// division, so pixels past Cols*cellWidth or Rows*cellHeight belong to no cell.
func (g Grid) Cell(bounds image.Rectangle, row, col int) image.Rectangle {
	cw := bounds.Dx() / g.Cols
	ch := bounds.Dy() / g.Rows
	x0 := bounds.Min.X + col*cw
	y0 := bounds.Min.Y + row*ch
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

// BrightnessMap holds one luminance value in [0,1] per grid cell.
// Values are stored row-major: Values[row*Cols+col].
//
// Cols and Rows are the fitted grid, not the requested one: an image
// narrower or shorter than the requested grid yields at most one column
// per pixel of width and one row per pixel of height, so len(Values) can
// be smaller than the requested cols*rows. Read the geometry from Cols
// and Rows rather than assuming the default 20x20.
type BrightnessMap struct {
	Cols   int       `json:"cols"`
	Rows   int       `json:"rows"`
	Values []float64 `json:"values"`
}

// NewBrightnessMap checks that values matches the grid size.
func NewBrightnessMap(cols, rows int, values []float64) (BrightnessMap, error) {
	if cols < 1 || rows < 1 || len(values) != cols*rows {
		return BrightnessMap{}, fmt.Errorf("brightness map %dx%d cannot hold %d values", cols, rows, len(values))
	}
	return BrightnessMap{Cols: cols, Rows: rows, Values: values}, nil
}

// Index returns the position of cell (row, col) in Values.
func (m BrightnessMap) Index(row, col int) int {
	return row*m.Cols + col
}

// At returns the value of cell (row, col).
func (m BrightnessMap) At(row, col int) float64 {
	return m.Values[m.Index(row, col)]
}

// Grid returns the geometry the map was sampled with.
func (m BrightnessMap) Grid() Grid {
	return Grid{Cols: m.Cols, Rows: m.Rows}
}

// Mean returns the average cell value.
func (m BrightnessMap) Mean() float64 {
	if len(m.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.Values {
		sum += v
	}
	return sum / float64(len(m.Values))
}

// Sampler computes per-cell luminance over a fixed grid.
type Sampler struct {
	Grid Grid
}

// NewSampler creates a sampler for the given grid resolution.
func NewSampler(cols, rows int) Sampler {
	return Sampler{Grid: Grid{Cols: cols, Rows: rows}}
}

// Sample partitions img into cells and returns the mean luminance of each.
func (s Sampler) Sample(img image.Image) (BrightnessMap, error) {
	if err := checkImage(img); err != nil {
		return BrightnessMap{}, err
	}
	return s.sample(toNRGBA(img)), nil
}

func (s Sampler) sample(img *image.NRGBA) BrightnessMap {
	bounds := img.Bounds()
	grid := s.Grid.Fit(bounds)

	values := make([]float64, 0, grid.Cols*grid.Rows)
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			values = append(values, cellLuminance(img, grid.Cell(bounds, row, col)))
		}
	}
	return BrightnessMap{Cols: grid.Cols, Rows: grid.Rows, Values: values}
}

// cellLuminance averages the 8-bit grayscale value of every pixel in r.
func cellLuminance(img *image.NRGBA, r image.Rectangle) float64 {
	var sum uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += uint64(gray(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
			i += 4
		}
	}
	n := uint64(r.Dx() * r.Dy())
	return float64(sum) / float64(n) / 255
}

// gray converts RGB to an 8-bit intensity with the ITU-R BT.601 weights.
func gray(r, g, b uint8) uint8 {
	v := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(v + 0.5)
}

func checkImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return nil
}

// toNRGBA returns img as non-premultiplied 8-bit RGBA, copying only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
