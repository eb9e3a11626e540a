package volume

import (
	"time"

	"volraycast/internal/models"
)

// Analyze derives the gradient, mean and diff buffers of g and accumulates
// the three histograms. The volume is split into z slabs processed in
// parallel by up to workers goroutines.
//
// For every voxel the 7 symmetric neighbour pairs along the axes and the
// four space diagonals are compared. The gradient is the mean absolute
// difference clamped to 127; mean and diff are the midpoint and half range
// of the pair with the largest difference.
func Analyze(g *models.Grid, workers int) (*models.Features, *models.Histograms) {
	start := time.Now()
	if workers < 1 {
		workers = 1
	}
	if workers > g.Depth {
		workers = g.Depth
	}

	feat := models.NewFeatures(g)
	lum := g.Data[models.Lum]
	sy, sz := g.Strides()

	pairs := [7]int{
		sz, sy, 1,
		sz + sy + 1,
		sz - sy + 1,
		sz + sy - 1,
		sz - sy - 1,
	}

	resultChan := make(chan *models.Histograms)
	slab := (g.Depth + workers - 1) / workers
	started := 0
	for z0 := 0; z0 < g.Depth; z0 += slab {
		z1 := z0 + slab
		if z1 > g.Depth {
			z1 = g.Depth
		}
		started++
		go func(z0, z1 int) {
			hist := &models.Histograms{}
			for z := z0; z < z1; z++ {
				for y := 0; y < g.Height; y++ {
					idx := g.Index(0, y, z)
					for x := 0; x < g.Width; x++ {
						sum, dMax, iMax := 0, -1, 0
						for i, off := range pairs {
							d := int(lum[idx-off]) - int(lum[idx+off])
							if d < 0 {
								d = -d
							}
							sum += d
							if d > dMax {
								dMax = d
								iMax = i
							}
						}

						a, b := int(lum[idx-pairs[iMax]]), int(lum[idx+pairs[iMax]])
						low, high := a, b
						if low > high {
							low, high = high, low
						}

						grad := sum / 7
						if grad > 127 {
							grad = 127
						}
						mean := (low + high) / 2
						diff := (high - low) / 2
						if diff > 127 {
							diff = 127
						}

						feat.Gradient[idx] = byte(grad)
						feat.Mean[idx] = byte(mean)
						feat.Diff[idx] = byte(diff)

						val := lum[idx]
						hist.Value[val]++
						hist.ValueGrad[val][grad]++
						hist.MeanDiff[mean][diff]++
						idx++
					}
				}
			}
			resultChan <- hist
		}(z0, z1)
	}

	total := &models.Histograms{}
	for i := 0; i < started; i++ {
		total.Merge(<-resultChan)
	}

	g.Replicate(feat.Gradient)
	g.Replicate(feat.Mean)
	g.Replicate(feat.Diff)

	logger.Infof("analyzed %dx%dx%d volume in %v", g.Width, g.Height, g.Depth, time.Since(start))
	return feat, total
}
