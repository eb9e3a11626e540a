package render

import (
	"sync/atomic"
	"time"

	"volraycast/pkg/log"
)

var logger = log.New("render")

// renderLevel renders one level into buf, one stripe per pool worker, and
// blocks until every stripe finished or observed stop.
func renderLevel(p *pool, job *Job, lvl Level, buf []uint32, stop *atomic.Bool) LevelStats {
	ctx := newLevelContext(job, lvl)
	bands := stripes(ctx.h, p.size, lvl.Sub)
	stats := LevelStats{Level: lvl, Stripes: make([]time.Duration, len(bands))}

	var (
		rays, samples atomic.Int64
		cancelled     atomic.Bool
		pending       atomic.Int32
	)
	done := make(chan struct{})
	pending.Store(int32(len(bands)))

	start := time.Now()
	for i, b := range bands {
		i, b := i, b
		p.submit(func() {
			t0 := time.Now()
			r, s, ok := ctx.renderStripe(b.y0, b.y1, buf, stop)
			rays.Add(r)
			samples.Add(s)
			if !ok {
				cancelled.Store(true)
			}
			stats.Stripes[i] = time.Since(t0)
			if pending.Add(-1) == 0 {
				close(done)
			}
		})
	}
	if len(bands) > 0 {
		<-done
	}

	stats.Cancelled = cancelled.Load()
	if !stats.Cancelled && job.Params.Mode == SliceAndBorders {
		ctx.drawOutline(buf)
	}
	stats.Rays = rays.Load()
	stats.Samples = samples.Load()
	stats.Duration = time.Since(start)
	return stats
}

// Render renders the final level of job synchronously.
func Render(job *Job, workers int) (*Frame, LevelStats) {
	var (
		frame *Frame
		stats LevelStats
	)
	levels := job.Levels()
	render(job, workers, levels[len(levels)-1:], func(f *Frame, s LevelStats) {
		frame, stats = f, s
	})
	return frame, stats
}

// RenderProgressive renders every level of job in order and hands each
// finished frame to fn.
func RenderProgressive(job *Job, workers int, fn func(*Frame, LevelStats)) {
	render(job, workers, job.Levels(), fn)
}

func render(job *Job, workers int, levels []Level, fn func(*Frame, LevelStats)) {
	if job.Prepare != nil {
		job.Prepare()
	}
	p := newPool(workers)
	defer p.close()

	w, h := job.Size()
	buf := make([]uint32, w*h)
	var stop atomic.Bool
	for _, lvl := range levels {
		stats := renderLevel(p, job, lvl, buf, &stop)
		logger.Debugf("level sub=%d: %d rays, %d samples in %v", lvl.Sub, stats.Rays, stats.Samples, stats.Duration)
		fn(snapshotFrame(w, h, buf), stats)
	}
}

func snapshotFrame(w, h int, buf []uint32) *Frame {
	return &Frame{Width: w, Height: h, Pixels: append([]uint32(nil), buf...)}
}
