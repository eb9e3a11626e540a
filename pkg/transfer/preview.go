package transfer

import (
	"image"
	"image/color"
	"math"
)

// Preview draws the mean x diff surface as a 256x128 image with diff
// growing upwards. Set cells show their colour weighted by opacity, unset
// cells show the log density of hist in gray.
func (m *MeanDiff) Preview(hist *[SurfaceWidth][SurfaceHeight]int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, SurfaceWidth, SurfaceHeight))

	peak := 0
	for v := range hist {
		for d := range hist[v] {
			if hist[v][d] > peak {
				peak = hist[v][d]
			}
		}
	}
	norm := math.Log1p(float64(peak))

	for v := 0; v < SurfaceWidth; v++ {
		for d := 0; d < SurfaceHeight; d++ {
			y := SurfaceHeight - 1 - d
			cell := m.alpha[v][d].Offset(m.offset)
			if a, ok := cell.Get(); ok {
				r, g, b := Split(m.color[v][d])
				w := float64(a) / 255
				img.SetRGBA(v, y, color.RGBA{scale(r, w), scale(g, w), scale(b, w), 255})
				continue
			}
			gray := uint8(0)
			if norm > 0 {
				gray = uint8(255 * math.Log1p(float64(hist[v][d])) / norm)
			}
			img.SetRGBA(v, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

func scale(c uint8, w float64) uint8 {
	return uint8(math.Round(float64(c) * w))
}
