package transfer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Luminance is the 1D classification model: one opacity per luminance bin.
// Values are kept signed until ScaleAlpha folds the offset in and clamps.
type Luminance struct {
	alpha  [256]int
	offset int
}

// NewLuminance returns a ramp from transparent to opaque.
func NewLuminance() *Luminance {
	l := &Luminance{}
	for i := range l.alpha {
		l.alpha[i] = i
	}
	return l
}

// Auto derives the curve from the luminance histogram. The dominant mode
// (usually background) is suppressed by 1 - 1.2*(h/peak)^0.3, the result
// is box smoothed over 5 taps and recentred around its mean.
func (l *Luminance) Auto(hist *[256]int) {
	peak := 0
	for _, h := range hist {
		if h > peak {
			peak = h
		}
	}
	if peak == 0 {
		return
	}

	v := make([]float64, 256)
	for i, h := range hist {
		v[i] = 1 - 1.2*math.Pow(float64(h)/float64(peak), 0.3)
	}
	v = boxSmooth(v, 2)
	mean := stat.Mean(v, nil)

	for i := range l.alpha {
		l.alpha[i] = int(clampByte(int(math.Round((v[i] - mean + 0.5) * 255))))
	}
	l.offset = 0
}

// Stroke sets the curve along the line from (x0, y0) to (x1, y1) where x is
// the luminance bin and y the opacity. erase forces opacity 0.
func (l *Luminance) Stroke(x0, y0, x1, y1 int, erase bool) {
	if x0 > x1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	for x := x0; x <= x1; x++ {
		if x < 0 || x > 255 {
			continue
		}
		y := y0
		if x1 != x0 {
			y = y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
		if erase {
			y = 0
		}
		l.alpha[x] = clampInt(y, 0, 255)
	}
}

// Smooth applies a 5-tap box filter to the curve.
func (l *Luminance) Smooth() {
	v := make([]float64, 256)
	for i, a := range l.alpha {
		v[i] = float64(a)
	}
	v = boxSmooth(v, 2)
	for i := range l.alpha {
		l.alpha[i] = int(math.Round(v[i]))
	}
}

// SetOffset sets the global opacity bias.
func (l *Luminance) SetOffset(offset int) { l.offset = offset }

// ScaleAlpha folds the offset into the curve and clamps it to [0, 255].
func (l *Luminance) ScaleAlpha() {
	for i := range l.alpha {
		l.alpha[i] = int(clampByte(l.alpha[i] + l.offset))
	}
	l.offset = 0
}

// ClearAlpha makes every bin transparent.
func (l *Luminance) ClearAlpha() {
	l.alpha = [256]int{}
	l.offset = 0
}

// Alpha returns the effective opacity of bin v.
func (l *Luminance) Alpha(v int) uint8 {
	return clampByte(l.alpha[v] + l.offset)
}

// Raw returns the stored curve value of bin v.
func (l *Luminance) Raw(v int) int { return l.alpha[v] }

// boxSmooth averages 2*r+1 neighbours, shrinking the window at the ends.
func boxSmooth(v []float64, r int) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		lo, hi := i-r, i+r
		if lo < 0 {
			lo = 0
		}
		if hi > len(v)-1 {
			hi = len(v) - 1
		}
		sum := 0.0
		for k := lo; k <= hi; k++ {
			sum += v[k]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
