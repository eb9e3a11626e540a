// Package cube models the bounding box of the volume and its intersections
// with the screen-space clip plane.
package cube

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"volraycast/pkg/transform"
)

// Axis selects one of the three orthogonal mid-slice quads.
type Axis int

const (
	XY Axis = iota
	YZ
	XZ
)

// dedupEpsilon is the distance under which two intersections are merged.
const dedupEpsilon = 1e-6

// Corner layout: corner i and 7-i are opposite, corners 0..3 connect to
// 4..7 except the opposite one. Corners 8..19 are the mid-slice quads.
var unit = [8]mgl64.Vec3{
	{0, 0, 0}, {1, 1, 0}, {1, 0, 1}, {0, 1, 1},
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
}

// faceTriangles triangulates the six faces, two triangles each.
var faceTriangles = [12][3]int{
	{0, 1, 4}, {0, 1, 5},
	{2, 3, 6}, {2, 3, 7},
	{1, 3, 5}, {1, 3, 7},
	{0, 2, 4}, {0, 2, 6},
	{1, 2, 4}, {1, 2, 7},
	{0, 3, 5}, {0, 3, 6},
}

// Edges lists the 12 cube edges as corner index pairs.
var Edges = func() [12][2]int {
	var e [12][2]int
	n := 0
	for i := 0; i < 4; i++ {
		for j := 4; j < 8; j++ {
			if i+j != 7 {
				e[n] = [2]int{i, j}
				n++
			}
		}
	}
	return e
}()

// Cube is the bounding box of a volume in volume space together with its
// screen-space projection under the last pose passed to Transform.
type Cube struct {
	width, height, depth float64

	// vol holds 8 box corners followed by three 4-corner slice quads
	vol    [20]mgl64.Vec3
	screen [20]mgl64.Vec3
}

// New creates the bounding cube of a width x height x depth volume with
// the mid-slice quads centred on each axis.
func New(width, height, depth int) *Cube {
	c := &Cube{width: float64(width), height: float64(height), depth: float64(depth)}
	for i, u := range unit {
		c.vol[i] = mgl64.Vec3{u[0] * c.width, u[1] * c.height, u[2] * c.depth}
	}
	c.SetSlicePositions(0.5, 0.5, 0.5)
	return c
}

// SetSlicePositions places the yz, xz and xy quads at the given fractions
// of the x, y and z extent.
func (c *Cube) SetSlicePositions(fx, fy, fz float64) {
	w, h, d := c.width, c.height, c.depth
	x, y, z := fx*w, fy*h, fz*d
	quads := [3][4]mgl64.Vec3{
		XY: {{0, 0, z}, {w, 0, z}, {w, h, z}, {0, h, z}},
		YZ: {{x, 0, 0}, {x, h, 0}, {x, h, d}, {x, 0, d}},
		XZ: {{0, y, 0}, {w, y, 0}, {w, y, d}, {0, y, d}},
	}
	for a, q := range quads {
		copy(c.vol[8+4*a:12+4*a], q[:])
	}
}

// Transform projects every corner with pose.
func (c *Cube) Transform(pose transform.Pose) {
	for i, v := range c.vol {
		c.screen[i] = pose.Vol2Screen(v)
	}
}

// Corner returns the screen-space position of box corner i.
func (c *Cube) Corner(i int) mgl64.Vec3 { return c.screen[i] }

// SliceQuad returns the screen-space corners of a mid-slice quad.
func (c *Cube) SliceQuad(a Axis) [4]mgl64.Vec3 {
	var q [4]mgl64.Vec3
	copy(q[:], c.screen[8+4*a:12+4*a])
	return q
}

// FindIntersections returns the screen-space points where the 12 edges
// cross the plane z = planeDistance, deduplicated. When the plane misses
// the cube a single degenerate point is returned.
func (c *Cube) FindIntersections(planeDistance float64) []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, 0, 6)
	for _, e := range Edges {
		if p, ok := crossPlane(c.screen[e[0]], c.screen[e[1]], planeDistance); ok {
			pts = appendUnique(pts, p)
		}
	}
	if len(pts) == 0 {
		return []mgl64.Vec3{{0, 0, planeDistance}}
	}
	return pts
}

// IntersectionPolygon returns the intersections ordered by angle around
// their centroid, giving a simple polygon for the clip outline.
func (c *Cube) IntersectionPolygon(planeDistance float64) []mgl64.Vec3 {
	return SortByAngle(c.FindIntersections(planeDistance))
}

// SliceIntersections returns where the edges of a mid-slice quad cross the
// plane z = planeDistance.
func (c *Cube) SliceIntersections(a Axis, planeDistance float64) []mgl64.Vec3 {
	q := c.SliceQuad(a)
	var pts []mgl64.Vec3
	for i := 0; i < 4; i++ {
		if p, ok := crossPlane(q[i], q[(i+1)%4], planeDistance); ok {
			pts = appendUnique(pts, p)
		}
	}
	return pts
}

// SortByAngle orders points by atan2 around their centroid.
func SortByAngle(pts []mgl64.Vec3) []mgl64.Vec3 {
	if len(pts) < 3 {
		return pts
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p[0]
		cy += p[1]
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	out := append([]mgl64.Vec3(nil), pts...)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Atan2(out[i][1]-cy, out[i][0]-cx) < math.Atan2(out[j][1]-cy, out[j][0]-cx)
	})
	return out
}

// IsInside reports whether a screen pixel lies in the projected cube.
func (c *Cube) IsInside(x, y float64) bool {
	for _, t := range faceTriangles {
		if inTriangle(x, y, c.screen[t[0]], c.screen[t[1]], c.screen[t[2]]) {
			return true
		}
	}
	return false
}

// Bounds is the screen-space extent of the projected cube.
type Bounds struct {
	XMin, XMax int
	YMin, YMax int
	ZMin, ZMax float64
}

// Empty reports whether no pixel is covered.
func (b Bounds) Empty() bool { return b.XMin > b.XMax || b.YMin > b.YMax }

// ScreenBounds returns the silhouette extent clamped to the viewport.
func (c *Cube) ScreenBounds(viewW, viewH int) Bounds {
	minV := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < 8; i++ {
		for k := 0; k < 3; k++ {
			minV[k] = math.Min(minV[k], c.screen[i][k])
			maxV[k] = math.Max(maxV[k], c.screen[i][k])
		}
	}
	return Bounds{
		XMin: clamp(int(math.Floor(minV[0])), 0, viewW),
		XMax: clamp(int(math.Ceil(maxV[0])), -1, viewW-1),
		YMin: clamp(int(math.Floor(minV[1])), 0, viewH),
		YMax: clamp(int(math.Ceil(maxV[1])), -1, viewH-1),
		ZMin: minV[2],
		ZMax: maxV[2],
	}
}

func crossPlane(a, b mgl64.Vec3, d float64) (mgl64.Vec3, bool) {
	za, zb := a[2]-d, b[2]-d
	if za == zb || za*zb > 0 {
		return mgl64.Vec3{}, false
	}
	t := za / (za - zb)
	if t < 0 || t > 1 {
		return mgl64.Vec3{}, false
	}
	return a.Add(b.Sub(a).Mul(t)), true
}

func appendUnique(pts []mgl64.Vec3, p mgl64.Vec3) []mgl64.Vec3 {
	for _, q := range pts {
		if q.Sub(p).Len() < dedupEpsilon {
			return pts
		}
	}
	return append(pts, p)
}

// inTriangle uses the sign of the three edge cross products.
func inTriangle(x, y float64, p1, p2, p3 mgl64.Vec3) bool {
	a := (p2[0]-p1[0])*(y-p1[1]) - (p2[1]-p1[1])*(x-p1[0])
	b := (p3[0]-p2[0])*(y-p2[1]) - (p3[1]-p2[1])*(x-p2[0])
	c := (p1[0]-p3[0])*(y-p3[1]) - (p1[1]-p3[1])*(x-p3[0])
	return (a >= 0 && b >= 0 && c >= 0) || (a <= 0 && b <= 0 && c <= 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
