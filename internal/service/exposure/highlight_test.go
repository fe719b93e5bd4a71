package exposure

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHighlights_OverlaysOnlyOutOfRangeCells(t *testing.T) {
	src := uniformImage(40, 40, grayLevel(128))
	original := append([]uint8(nil), src.Pix...)

	m, err := NewBrightnessMap(2, 2, []float64{0.9, 0.5, 0.1, 0.2})
	require.NoError(t, err)

	out, err := RenderHighlights(src, m)
	require.NoError(t, err)
	assert.Equal(t, original, src.Pix, "source image must not change")

	grid := m.Grid()
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			cell := grid.Cell(src.Bounds(), row, col)
			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				for x := cell.Min.X; x < cell.Max.X; x++ {
					got := out.RGBAAt(x, y)
					v := m.At(row, col)
					switch {
					case v > OverexposedThreshold:
						require.Greater(t, got.G, got.R, "green tint at %d,%d", x, y)
						require.Greater(t, got.G, uint8(128))
					case v < UnderexposedThreshold:
						require.Greater(t, got.R, got.G, "red tint at %d,%d", x, y)
						require.Greater(t, got.R, uint8(128))
					default:
						s := src.NRGBAAt(x, y)
						require.Equal(t, [4]uint8{s.R, s.G, s.B, s.A}, [4]uint8{got.R, got.G, got.B, got.A})
					}
				}
			}
		}
	}
}

func TestRenderHighlights_TintKeepsImageVisible(t *testing.T) {
	src := uniformImage(10, 10, grayLevel(200))
	m, err := NewBrightnessMap(1, 1, []float64{0.95})
	require.NoError(t, err)

	out, err := RenderHighlights(src, m)
	require.NoError(t, err)

	px := out.RGBAAt(5, 5)
	assert.NotZero(t, px.R, "underlying red channel should show through")
	assert.Equal(t, uint8(255), px.A)
}

func TestRenderHighlights_MatchesSamplerGeometry(t *testing.T) {
	src := uniformImage(53, 31, grayLevel(250))
	fillRect(src, image.Rect(0, 0, 53, 15), grayLevel(10))

	m, err := Sampler{Grid: DefaultGrid()}.Sample(src)
	require.NoError(t, err)
	out, err := RenderHighlights(src, m)
	require.NoError(t, err)

	// Leftover pixels outside every cell stay untouched.
	assert.Equal(t, src.NRGBAAt(52, 30).R, out.RGBAAt(52, 30).R)
	assert.NotEqual(t, src.NRGBAAt(0, 0).R, out.RGBAAt(0, 0).R)
}

func TestRenderHighlights_RejectsBadMap(t *testing.T) {
	_, err := RenderHighlights(uniformImage(4, 4, grayLevel(0)), BrightnessMap{Cols: 2, Rows: 2, Values: []float64{1}})
	assert.Error(t, err)
}
