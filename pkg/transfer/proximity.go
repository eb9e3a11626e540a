package transfer

import "gonum.org/v1/gonum/spatial/kdtree"

// seedPoint is a fill seed in voxel coordinates
type seedPoint struct {
	X, Y, Z float64
	Color   uint8
}

// Compare implements the kdtree.Comparable interface
func (p seedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(seedPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		return p.Z - q.Z
	}
}

// Dims returns the number of dimensions
func (p seedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p seedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(seedPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// seedPoints satisfies kdtree.Interface
type seedPoints []seedPoint

func (p seedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p seedPoints) Len() int                              { return len(p) }
func (p seedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p seedPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(seedPlane{seedPoints: p, Dim: d}, kdtree.MedianOfRandoms(seedPlane{seedPoints: p, Dim: d}, 100))
}

// seedPlane implements sort.Interface and kdtree.SortSlicer for seedPoints
type seedPlane struct {
	seedPoints
	kdtree.Dim
}

func (p seedPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.seedPoints[i].X < p.seedPoints[j].X
	case 1:
		return p.seedPoints[i].Y < p.seedPoints[j].Y
	default:
		return p.seedPoints[i].Z < p.seedPoints[j].Z
	}
}

func (p seedPlane) Slice(start, end int) kdtree.SortSlicer {
	return seedPlane{seedPoints: p.seedPoints[start:end], Dim: p.Dim}
}

func (p seedPlane) Swap(i, j int) {
	p.seedPoints[i], p.seedPoints[j] = p.seedPoints[j], p.seedPoints[i]
}

// ColorByProximity recolours every painted or coloured voxel with the
// colour of the nearest fill seed. It returns the number of voxels visited.
func (p *Paint3D) ColorByProximity() int {
	if len(p.seeds) == 0 {
		return 0
	}
	points := make(seedPoints, len(p.seeds))
	for i, s := range p.seeds {
		points[i] = seedPoint{X: float64(s.X), Y: float64(s.Y), Z: float64(s.Z), Color: s.Color}
	}
	tree := kdtree.New(points, true)

	g := p.grid
	count := 0
	for z := 0; z < g.Depth; z++ {
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				idx := g.Index(x, y, z)
				if p.feat.PaintAlpha[idx] == 0 && p.feat.PaintColor[idx] == 0 && !p.feat.Region[idx] {
					continue
				}
				nearest, _ := tree.Nearest(seedPoint{X: float64(x), Y: float64(y), Z: float64(z)})
				p.feat.PaintColor[idx] = nearest.(seedPoint).Color
				count++
			}
		}
	}
	g.Replicate(p.feat.PaintColor)
	logger.Debugf("recoloured %d voxels from %d seeds", count, len(p.seeds))
	return count
}
