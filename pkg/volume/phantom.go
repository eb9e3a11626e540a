package volume

import (
	"math"

	"volraycast/internal/models"
)

// SingleVoxel returns a gray volume that is zero except for one voxel.
func SingleVoxel(w, h, d, x, y, z int, value byte) (*models.Grid, error) {
	g, err := models.NewGrid(w, h, d, 1)
	if err != nil {
		return nil, err
	}
	g.Set(models.Lum, x, y, z, value)
	g.PadBorders()
	return g, nil
}

// Sphere returns an n^3 gray volume holding a ball of the given radius
// whose value falls from 255 at the centre to 128 at the surface.
func Sphere(n int, radius float64) (*models.Grid, error) {
	g, err := models.NewGrid(n, n, n, 1)
	if err != nil {
		return nil, err
	}
	c := float64(n-1) / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy, dz := float64(x)-c, float64(y)-c, float64(z)-c
				r := math.Sqrt(dx*dx + dy*dy + dz*dz)
				if r <= radius {
					g.Set(models.Lum, x, y, z, byte(255-127*r/radius))
				}
			}
		}
	}
	g.PadBorders()
	return g, nil
}

// Ramp returns a gray volume whose value grows linearly along x.
func Ramp(w, h, d int) (*models.Grid, error) {
	g, err := models.NewGrid(w, h, d, 1)
	if err != nil {
		return nil, err
	}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := 0
				if w > 1 {
					v = 255 * x / (w - 1)
				}
				g.Set(models.Lum, x, y, z, byte(v))
			}
		}
	}
	g.PadBorders()
	return g, nil
}
