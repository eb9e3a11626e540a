package transfer

import (
	"fmt"

	"volraycast/internal/models"
	"volraycast/pkg/log"
)

var logger = log.New("transfer")

// SmallRegion is the region size below which a fill is reported as suspicious.
const SmallRegion = 100

// initialQueue is the starting capacity of the fill stack.
const initialQueue = 40000

// FillResult describes a finished region fill.
type FillResult struct {
	// Size is the number of voxels accepted into the region
	Size int

	// Small is set when Size is below SmallRegion. The fill is applied anyway.
	Small bool
}

// Seed is the clicked voxel of a fill and the colour index it painted.
type Seed struct {
	X, Y, Z int
	Color   uint8
}

// Paint3D is the free-form region paint model. Opacity and colour are
// stored per voxel in the Features buffers.
type Paint3D struct {
	grid   *models.Grid
	feat   *models.Features
	colors Palette
	offset int
	seeds  []Seed
}

// NewPaint3D creates a paint model over grid and its feature buffers.
// Colour indices map through colors.
func NewPaint3D(grid *models.Grid, feat *models.Features, colors Palette) *Paint3D {
	return &Paint3D{grid: grid, feat: feat, colors: colors}
}

// SetColors replaces the index to colour table.
func (p *Paint3D) SetColors(colors Palette) { p.colors = colors }

// Colors returns the index to colour table.
func (p *Paint3D) Colors() Palette { return p.colors }

// Seeds returns the fills applied since the last ClearAlpha.
func (p *Paint3D) Seeds() []Seed { return append([]Seed(nil), p.seeds...) }

// FindAndSetSimilar flood fills the 6-connected region around (x, y, z).
// A neighbour joins when its luminance differs from the seed by at most
// lumTol and its gradient magnitude is at most gradTol. Joined voxels get
// alpha, colour and region membership; rejected neighbours only get the
// colour.
func (p *Paint3D) FindAndSetSimilar(x, y, z int, alpha, colorIndex uint8, lumTol, gradTol int) (FillResult, error) {
	g := p.grid
	if !g.Contains(x, y, z) {
		return FillResult{}, fmt.Errorf("seed (%d,%d,%d) outside volume %dx%dx%d", x, y, z, g.Width, g.Height, g.Depth)
	}

	lum := g.Data[models.Lum]
	sy, sz := g.Strides()
	pw, ph, _ := g.PaddedDims()
	seedLum := int(lum[g.Index(x, y, z)])

	processed := make([]bool, g.PaddedLen())
	stack := make([]int, 0, initialQueue)

	start := g.Index(x, y, z)
	p.set(start, alpha, colorIndex)
	processed[start] = true
	stack = append(stack, start)
	size := 1

	offsets := [6]int{-1, 1, -sy, sy, -sz, sz}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		px := idx%pw - models.Pad
		py := (idx/pw)%ph - models.Pad
		pz := idx/(pw*ph) - models.Pad

		for k, off := range offsets {
			nx, ny, nz := px, py, pz
			switch k {
			case 0:
				nx--
			case 1:
				nx++
			case 2:
				ny--
			case 3:
				ny++
			case 4:
				nz--
			case 5:
				nz++
			}
			if !g.Contains(nx, ny, nz) {
				continue
			}
			n := idx + off
			p.feat.PaintColor[n] = colorIndex

			if processed[n] {
				continue
			}
			if abs(int(lum[n])-seedLum) > lumTol {
				continue
			}
			if int(p.feat.Gradient[n]) > gradTol {
				continue
			}

			size++
			p.set(n, alpha, colorIndex)
			processed[n] = true
			stack = append(stack, n)
		}
	}

	g.Replicate(p.feat.PaintAlpha)
	g.Replicate(p.feat.PaintColor)
	p.seeds = append(p.seeds, Seed{X: x, Y: y, Z: z, Color: colorIndex})

	res := FillResult{Size: size, Small: size < SmallRegion}
	if res.Small {
		logger.Warningf("region at (%d,%d,%d) has only %d voxels", x, y, z, size)
	} else {
		logger.Debugf("region at (%d,%d,%d) has %d voxels", x, y, z, size)
	}
	return res, nil
}

func (p *Paint3D) set(idx int, alpha, colorIndex uint8) {
	p.feat.PaintAlpha[idx] = alpha
	p.feat.PaintColor[idx] = colorIndex
	p.feat.Region[idx] = true
}

// SetOffset sets the global opacity bias.
func (p *Paint3D) SetOffset(offset int) { p.offset = offset }

// ScaleAlpha folds the offset into every region voxel and clamps it.
func (p *Paint3D) ScaleAlpha() {
	if p.offset == 0 {
		return
	}
	for i, in := range p.feat.Region {
		if in {
			p.feat.PaintAlpha[i] = clampByte(int(p.feat.PaintAlpha[i]) + p.offset)
		}
	}
	p.grid.Replicate(p.feat.PaintAlpha)
	p.offset = 0
}

// ClearAlpha removes every region.
func (p *Paint3D) ClearAlpha() {
	p.feat.ClearPaint()
	p.seeds = nil
	p.offset = 0
}

// Alpha maps a stored paint opacity to its effective value. Unpainted
// voxels stay transparent.
func (p *Paint3D) Alpha(stored uint8) uint8 {
	if stored == 0 {
		return 0
	}
	return clampByte(int(stored) + p.offset)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
