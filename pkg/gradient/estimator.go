// Package gradient estimates per-voxel surface normals from the opacity
// field of the active classification model.
package gradient

import (
	"sync"
	"time"

	"volraycast/internal/models"
	"volraycast/pkg/log"
	"volraycast/pkg/transfer"
)

var logger = log.New("gradient")

// Estimator writes NormalX/Y/Z of a feature set. It remembers the
// classifier version of the last computation so repeated refreshes with
// unchanged opacity are free.
type Estimator struct {
	grid    *models.Grid
	feat    *models.Features
	workers int

	version uint64
	valid   bool
}

// New creates an estimator over grid and feat using up to workers goroutines.
func New(grid *models.Grid, feat *models.Features, workers int) *Estimator {
	if workers < 1 {
		workers = 1
	}
	return &Estimator{grid: grid, feat: feat, workers: workers}
}

// Refresh recomputes the normals when lighting is on and snap differs
// from the last computed version. It reports whether work was done.
func (e *Estimator) Refresh(snap *transfer.Snapshot, lighting bool) bool {
	if !lighting {
		return false
	}
	if e.valid && e.version == snap.Version {
		return false
	}
	e.Calculate(snap)
	return true
}

// Invalidate forces the next Refresh to recompute.
func (e *Estimator) Invalidate() { e.valid = false }

// Calculate evaluates the opacity of every voxel, smooths it with a
// 3x3x3 mean and stores central differences of 3x3 face sums, divided by
// four, clamped to [-127, 127] and biased by 128.
func (e *Estimator) Calculate(snap *transfer.Snapshot) {
	start := time.Now()
	g := e.grid
	n := g.PaddedLen()

	alpha := make([]byte, n)
	e.parallel(func(z0, z1 int) {
		e.opacitySlab(snap, alpha, z0, z1)
	})
	g.Replicate(alpha)

	smooth := make([]byte, n)
	e.parallel(func(z0, z1 int) {
		e.smoothSlab(alpha, smooth, z0, z1)
	})
	g.Replicate(smooth)

	e.parallel(func(z0, z1 int) {
		e.diffSlab(smooth, z0, z1)
	})
	g.Replicate(e.feat.NormalX)
	g.Replicate(e.feat.NormalY)
	g.Replicate(e.feat.NormalZ)

	e.version = snap.Version
	e.valid = true
	logger.Debugf("gradients for %s model computed in %v", snap.Mode, time.Since(start))
}

// parallel runs fn over z slabs of the unpadded volume.
func (e *Estimator) parallel(fn func(z0, z1 int)) {
	depth := e.grid.Depth
	workers := e.workers
	if workers > depth {
		workers = depth
	}
	slab := (depth + workers - 1) / workers

	var wg sync.WaitGroup
	for z0 := 0; z0 < depth; z0 += slab {
		z1 := z0 + slab
		if z1 > depth {
			z1 = depth
		}
		wg.Add(1)
		go func(z0, z1 int) {
			defer wg.Done()
			fn(z0, z1)
		}(z0, z1)
	}
	wg.Wait()
}

func (e *Estimator) opacitySlab(snap *transfer.Snapshot, alpha []byte, z0, z1 int) {
	g, f := e.grid, e.feat
	lum := g.Data[models.Lum]
	for z := z0; z < z1; z++ {
		for y := 0; y < g.Height; y++ {
			idx := g.Index(0, y, z)
			for x := 0; x < g.Width; x++ {
				alpha[idx] = snap.Alpha(int(lum[idx]), int(f.Gradient[idx]), int(f.Mean[idx]), int(f.Diff[idx]), f.PaintAlpha[idx])
				idx++
			}
		}
	}
}

func (e *Estimator) smoothSlab(alpha, smooth []byte, z0, z1 int) {
	g := e.grid
	sy, sz := g.Strides()
	for z := z0; z < z1; z++ {
		for y := 0; y < g.Height; y++ {
			idx := g.Index(0, y, z)
			for x := 0; x < g.Width; x++ {
				sum := 0
				for dz := -sz; dz <= sz; dz += sz {
					for dy := -sy; dy <= sy; dy += sy {
						base := idx + dz + dy
						sum += int(alpha[base-1]) + int(alpha[base]) + int(alpha[base+1])
					}
				}
				smooth[idx] = byte(sum / 27)
				idx++
			}
		}
	}
}

func (e *Estimator) diffSlab(smooth []byte, z0, z1 int) {
	g, f := e.grid, e.feat
	sy, sz := g.Strides()

	// face sums of the 3x3 neighbourhood orthogonal to an axis at offset c
	face := func(c, u, v int) int {
		s := 0
		for a := -1; a <= 1; a++ {
			for b := -1; b <= 1; b++ {
				s += int(smooth[c+a*u+b*v])
			}
		}
		return s
	}

	for z := z0; z < z1; z++ {
		for y := 0; y < g.Height; y++ {
			idx := g.Index(0, y, z)
			for x := 0; x < g.Width; x++ {
				gx := (face(idx+1, sy, sz) - face(idx-1, sy, sz)) / 4
				gy := (face(idx+sy, 1, sz) - face(idx-sy, 1, sz)) / 4
				gz := (face(idx+sz, 1, sy) - face(idx-sz, 1, sy)) / 4
				f.NormalX[idx] = bias(gx)
				f.NormalY[idx] = bias(gy)
				f.NormalZ[idx] = bias(gz)
				idx++
			}
		}
	}
}

func bias(v int) byte {
	if v > 127 {
		v = 127
	}
	if v < -127 {
		v = -127
	}
	return byte(v + 128)
}
