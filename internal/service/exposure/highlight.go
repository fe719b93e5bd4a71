package exposure

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	// OverexposedThreshold and UnderexposedThreshold bound the untouched range.
	OverexposedThreshold  = 0.8
	UnderexposedThreshold = 0.2

	overlayAlpha = 80
)

var (
	overexposedTint  = color.NRGBA{R: 0, G: 255, B: 0, A: overlayAlpha}
	underexposedTint = color.NRGBA{R: 255, G: 0, B: 0, A: overlayAlpha}
)

// RenderHighlights returns a copy of img with over- and underexposed cells
// tinted. The cell geometry comes from m, so m must have been sampled from an
// image with the same bounds.
func RenderHighlights(img image.Image, m BrightnessMap) (*image.RGBA, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if m.Cols < 1 || m.Rows < 1 || len(m.Values) != m.Cols*m.Rows {
		return nil, fmt.Errorf("brightness map %dx%d has %d values", m.Cols, m.Rows, len(m.Values))
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	grid := m.Grid()
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			tint, ok := tintFor(m.At(row, col))
			if !ok {
				continue
			}
			cell := grid.Cell(bounds, row, col)
			draw.Draw(out, cell, &image.Uniform{C: tint}, image.Point{}, draw.Over)
		}
	}
	return out, nil
}

func tintFor(v float64) (color.NRGBA, bool) {
	switch {
	case v > OverexposedThreshold:
		return overexposedTint, true
	case v < UnderexposedThreshold:
		return underexposedTint, true
	}
	return color.NRGBA{}, false
}
