package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"volraycast/internal/models"
	"volraycast/pkg/cube"
	"volraycast/pkg/transfer"
)

// Outline colours of the slice-with-borders mode.
const (
	edgeColor = 0xffc0c0c0
	clipColor = 0xffffff00
	quadColor = 0xff00ff00
)

// planePixel samples the clip plane at pixel (x, y).
func (c *levelContext) planePixel(x, y int) (uint32, int) {
	p := c.origin.Add(c.dx.Mul(float64(x))).Add(c.dy.Mul(float64(y)))
	if !c.contains(p) {
		return c.bg, 0
	}
	g := c.grid
	idx := g.Index(int(p[0]), int(p[1]), int(p[2]))
	if c.snap.VoxelColor {
		return argb(transfer.RGB(g.Data[models.Red][idx], g.Data[models.Green][idx], g.Data[models.Blue][idx])), 1
	}
	return argb(c.snap.PaletteColor(int(g.Data[models.Lum][idx]))), 1
}

// drawOutline draws the cube edges, the clip polygon and the lines where
// the mid-slice quads cut the clip plane.
func (c *levelContext) drawOutline(buf []uint32) {
	cb := &c.job.Cube
	for _, e := range cube.Edges {
		c.line(buf, cb.Corner(e[0]), cb.Corner(e[1]), edgeColor)
	}

	poly := cb.IntersectionPolygon(c.zStart)
	if len(poly) >= 3 {
		for i := range poly {
			c.line(buf, poly[i], poly[(i+1)%len(poly)], clipColor)
		}
	}

	for _, a := range []cube.Axis{cube.XY, cube.YZ, cube.XZ} {
		if pts := cb.SliceIntersections(a, c.zStart); len(pts) == 2 {
			c.line(buf, pts[0], pts[1], quadColor)
		}
	}
}

// line rasterises a segment with Bresenham's algorithm, clipped to the
// frame.
func (c *levelContext) line(buf []uint32, a, b mgl64.Vec3, col uint32) {
	x0, y0 := int(a[0]+0.5), int(a[1]+0.5)
	x1, y1 := int(b[0]+0.5), int(b[1]+0.5)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if x0 >= 0 && y0 >= 0 && x0 < c.w && y0 < c.h {
			buf[y0*c.w+x0] = col
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
