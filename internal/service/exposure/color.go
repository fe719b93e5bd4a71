package exposure

import (
	"image"

	"golang.org/x/image/draw"
)

// SummarySize is the side length of the thumbnail used for color summaries.
const SummarySize = 100

// RGB is a color with channels in [0,255].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// SummarizeColor returns the mean color of a SummarySize x SummarySize
// downsample of img. Channels are read as stored, with no color-space conversion.
func SummarizeColor(img image.Image) (RGB, error) {
	if err := checkImage(img); err != nil {
		return RGB{}, err
	}

	thumb := image.NewNRGBA(image.Rect(0, 0, SummarySize, SummarySize))
	draw.BiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)

	var r, g, b uint64
	for i := 0; i < len(thumb.Pix); i += 4 {
		r += uint64(thumb.Pix[i])
		g += uint64(thumb.Pix[i+1])
		b += uint64(thumb.Pix[i+2])
	}
	n := float64(SummarySize * SummarySize)
	return RGB{R: float64(r) / n, G: float64(g) / n, B: float64(b) / n}, nil
}
