package render

import "time"

// Level is one pass of the refinement schedule. Rays are cast on every
// Sub-th pixel of every Sub-th row; the other pixels copy the nearest
// computed one.
type Level struct {
	Sub           int
	Sampling      float64
	Interpolation Interpolation
	Final         bool
}

// LevelStats describes a finished or cancelled level.
type LevelStats struct {
	Level     Level
	Rays      int64
	Samples   int64
	Duration  time.Duration
	Stripes   []time.Duration
	Cancelled bool
}

// Levels builds the schedule for a w x h viewport. The coarsest step is
// max(w, h)/100 made odd, two steps coarser when the final level samples
// densely or interpolates. Steps up to 5 shrink by 2, larger ones halve
// (kept odd). Coarse levels read nearest voxels with sparse sampling.
func Levels(w, h int, sampling float64, interp Interpolation) []Level {
	sub := w
	if h > sub {
		sub = h
	}
	sub /= 100
	if sub%2 == 0 {
		sub++
	}
	if sampling > 1 || interp == Trilinear {
		sub += 2
	}

	var levels []Level
	for sub > 1 {
		lvl := Level{Sub: sub, Sampling: 0.5, Interpolation: Nearest}
		if sub == 3 {
			lvl.Sampling = 1
		}
		levels = append(levels, lvl)
		sub = nextSub(sub)
	}
	return append(levels, Level{Sub: 1, Sampling: sampling, Interpolation: interp, Final: true})
}

func nextSub(sub int) int {
	if sub <= 5 {
		sub -= 2
	} else {
		sub /= 2
		if sub%2 == 0 {
			sub++
		}
	}
	if sub < 1 {
		sub = 1
	}
	return sub
}

// stripe is a band of rows [y0, y1) rendered by one task
type stripe struct {
	y0, y1 int
}

// stripes partitions height rows into one band per worker. Band heights
// are multiples of sub so copied pixels never cross a band; the last band
// takes the remainder.
func stripes(height, workers, sub int) []stripe {
	if height <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	band := (height / workers / sub) * sub
	if band < sub {
		band = sub
	}
	var out []stripe
	for i := 0; i < workers; i++ {
		y0 := i * band
		if y0 >= height {
			break
		}
		y1 := y0 + band
		if i == workers-1 || y1 > height {
			y1 = height
		}
		out = append(out, stripe{y0: y0, y1: y1})
	}
	return out
}
