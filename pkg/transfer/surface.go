package transfer

import "math"

// Surface dimensions: luminance or mean on x, gradient or diff on y.
const (
	SurfaceWidth  = 256
	SurfaceHeight = 128
)

// brushRadius is the half size of the 13x13 paint neighbourhood.
const brushRadius = 6

// LumGrad is the 2D luminance x gradient model.
type LumGrad struct {
	alpha  [SurfaceWidth][SurfaceHeight]int
	color  [SurfaceWidth][SurfaceHeight]uint32
	offset int
}

// NewLumGrad returns a transparent surface coloured by p.
func NewLumGrad(p Palette) *LumGrad {
	m := &LumGrad{}
	m.ResetColors(p)
	return m
}

// ResetColors colours every cell by its luminance.
func (m *LumGrad) ResetColors(p Palette) {
	for v := range m.color {
		for g := range m.color[v] {
			m.color[v][g] = p[v]
		}
	}
}

// Auto seeds the surface from the peak normalised, log compressed 2D
// histogram, weighted towards high gradients so homogeneous regions
// stay transparent.
func (m *LumGrad) Auto(hist *[SurfaceWidth][SurfaceHeight]int) {
	peak := 0
	for v := range hist {
		for g := range hist[v] {
			if hist[v][g] > peak {
				peak = hist[v][g]
			}
		}
	}
	if peak == 0 {
		return
	}
	norm := math.Log1p(float64(peak))
	for v := range hist {
		for g := range hist[v] {
			d := math.Log1p(float64(hist[v][g])) / norm
			m.alpha[v][g] = int(clampByte(int(math.Round(255 * d * float64(g) / (SurfaceHeight - 1)))))
		}
	}
	m.offset = 0
}

// Paint sets a 13x13 neighbourhood around (x, y) to alpha and colour.
// erase clears opacity and keeps the colour.
func (m *LumGrad) Paint(x, y int, alpha uint8, erase bool, color uint32) {
	forBrush(x, y, func(v, g int) {
		if erase {
			m.alpha[v][g] = 0
			return
		}
		m.alpha[v][g] = int(alpha)
		m.color[v][g] = color
	})
}

// SetOffset sets the global opacity bias.
func (m *LumGrad) SetOffset(offset int) { m.offset = offset }

// ScaleAlpha folds the offset into the surface and clamps it to [0, 255].
func (m *LumGrad) ScaleAlpha() {
	for v := range m.alpha {
		for g := range m.alpha[v] {
			m.alpha[v][g] = int(clampByte(m.alpha[v][g] + m.offset))
		}
	}
	m.offset = 0
}

// ClearAlpha makes every cell transparent.
func (m *LumGrad) ClearAlpha() {
	m.alpha = [SurfaceWidth][SurfaceHeight]int{}
	m.offset = 0
}

// Alpha returns the effective opacity of a cell.
func (m *LumGrad) Alpha(v, g int) uint8 { return clampByte(m.alpha[v][g] + m.offset) }

// Raw returns the stored value of a cell.
func (m *LumGrad) Raw(v, g int) int { return m.alpha[v][g] }

// Color returns the colour of a cell.
func (m *LumGrad) Color(v, g int) uint32 { return m.color[v][g] }

// MeanDiff is the 2D mean x half-range model. Cells start unset.
type MeanDiff struct {
	alpha  [SurfaceWidth][SurfaceHeight]Opacity
	color  [SurfaceWidth][SurfaceHeight]uint32
	offset int
}

// NewMeanDiff returns an unset surface coloured by p.
func NewMeanDiff(p Palette) *MeanDiff {
	m := &MeanDiff{}
	m.ResetColors(p)
	return m
}

// ResetColors colours every cell by its mean.
func (m *MeanDiff) ResetColors(p Palette) {
	for v := range m.color {
		for d := range m.color[v] {
			m.color[v][d] = p[v]
		}
	}
}

// Paint sets a 13x13 neighbourhood around (x, y). erase stores a real
// opacity of 0, not unset.
func (m *MeanDiff) Paint(x, y int, alpha uint8, erase bool, color uint32) {
	forBrush(x, y, func(v, d int) {
		if erase {
			m.alpha[v][d] = OpacityOf(0)
			return
		}
		m.alpha[v][d] = OpacityOf(alpha)
		m.color[v][d] = color
	})
}

// SetOffset sets the global opacity bias.
func (m *MeanDiff) SetOffset(offset int) { m.offset = offset }

// ScaleAlpha folds the offset into every set cell.
func (m *MeanDiff) ScaleAlpha() {
	for v := range m.alpha {
		for d := range m.alpha[v] {
			m.alpha[v][d] = m.alpha[v][d].Offset(m.offset)
		}
	}
	m.offset = 0
}

// ClearAlpha unsets every cell.
func (m *MeanDiff) ClearAlpha() {
	m.alpha = [SurfaceWidth][SurfaceHeight]Opacity{}
	m.offset = 0
}

// Cell returns the stored opacity of a cell.
func (m *MeanDiff) Cell(v, d int) Opacity { return m.alpha[v][d] }

// Alpha returns the effective opacity of a cell. Unset cells are transparent.
func (m *MeanDiff) Alpha(v, d int) uint8 {
	return m.alpha[v][d].Offset(m.offset).Or(0)
}

// Color returns the colour of a cell.
func (m *MeanDiff) Color(v, d int) uint32 { return m.color[v][d] }

func forBrush(x, y int, fn func(a, b int)) {
	for a := x - brushRadius; a <= x+brushRadius; a++ {
		if a < 0 || a >= SurfaceWidth {
			continue
		}
		for b := y - brushRadius; b <= y+brushRadius; b++ {
			if b < 0 || b >= SurfaceHeight {
				continue
			}
			fn(a, b)
		}
	}
}
