package render

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"volraycast/internal/models"
	"volraycast/pkg/cube"
	"volraycast/pkg/transfer"
)

// earlyTermination is the transmittance below which a volume ray stops.
const earlyTermination = 0.02

// startNormalWeight biases the normal of rays that start inside the
// volume towards the clip plane.
const startNormalWeight = 20

// levelContext holds everything derived from a Job for one level.
type levelContext struct {
	job   *Job
	lvl   Level
	snap  *transfer.Snapshot
	grid  *models.Grid
	feat  *models.Features
	w, h  int
	bg    uint32
	alpha [256]float64

	bounds       cube.Bounds
	zStart, zEnd float64
	origin       mgl64.Vec3
	dx, dy       mgl64.Vec3
	step         mgl64.Vec3
	steps        int
	dims         mgl64.Vec3
	sy, sz       int

	light      bool
	lightDir   mgl64.Vec3
	lightColor mgl64.Vec3
}

func newLevelContext(job *Job, lvl Level) *levelContext {
	w, h := job.Size()
	c := &levelContext{
		job:   job,
		lvl:   lvl,
		snap:  job.Transfer,
		grid:  job.Grid,
		feat:  job.Features,
		w:     w,
		h:     h,
		bg:    argb(job.Params.Background),
		alpha: transfer.AlphaTable(lvl.Sampling),
		dims:  mgl64.Vec3{float64(job.Grid.Width), float64(job.Grid.Height), float64(job.Grid.Depth)},
	}
	c.sy, c.sz = job.Grid.Strides()

	c.bounds = job.Cube.ScreenBounds(w, h)
	c.zStart = job.plane(c.bounds)
	c.zEnd = c.bounds.ZMax

	pose := job.Pose
	c.origin = pose.Screen2Vol(mgl64.Vec3{0, 0, c.zStart})
	c.dx = pose.Screen2Vol(mgl64.Vec3{1, 0, c.zStart}).Sub(c.origin)
	c.dy = pose.Screen2Vol(mgl64.Vec3{0, 1, c.zStart}).Sub(c.origin)
	// one step spans scale screen units, i.e. a fixed distance in the
	// volume, so opacity per sample does not depend on the zoom
	scale := pose.Scale
	if scale <= 0 {
		scale = 1
	}
	dz := pose.Screen2Vol(mgl64.Vec3{0, 0, c.zStart + scale}).Sub(c.origin)
	c.step = dz.Mul(1 / lvl.Sampling)
	c.steps = int(math.Ceil(lvl.Sampling * (c.zEnd - c.zStart) / scale))

	l := job.Params.Light
	if l.Enabled && job.Params.Mode == Volume && l.Direction.Len() > 0 {
		c.light = true
		c.lightDir = l.Direction.Normalize()
		r, g, b := transfer.Split(l.Color)
		c.lightColor = mgl64.Vec3{float64(r), float64(g), float64(b)}
	}
	return c
}

// renderStripe fills rows [y0, y1) of buf. It returns false when stop was
// observed; the rows written so far are then garbage.
func (c *levelContext) renderStripe(y0, y1 int, buf []uint32, stop *atomic.Bool) (rays, samples int64, ok bool) {
	sub := c.lvl.Sub
	plane := c.job.Params.Mode.IsPlane()
	for y := y0; y < y1; y++ {
		if stop.Load() {
			return rays, samples, false
		}
		row := y * c.w
		if y%sub != 0 {
			src := (y / sub) * sub * c.w
			for x := 0; x < c.w; x++ {
				buf[row+x] = buf[src+(x/sub)*sub]
			}
			continue
		}
		for x := 0; x < c.w; x++ {
			if x%sub != 0 {
				buf[row+x] = buf[row+(x/sub)*sub]
				continue
			}
			if !c.covers(x, y) {
				buf[row+x] = c.bg
				continue
			}
			var n int
			if plane {
				buf[row+x], n = c.planePixel(x, y)
			} else {
				buf[row+x], n = c.march(x, y)
			}
			rays++
			samples += int64(n)
		}
	}
	return rays, samples, true
}

func (c *levelContext) covers(x, y int) bool {
	b := c.bounds
	if x < b.XMin || x > b.XMax || y < b.YMin || y > b.YMax {
		return false
	}
	return c.job.Cube.IsInside(float64(x), float64(y))
}

// voxel is one classified sample
type voxel struct {
	alpha   uint8
	color   uint32
	metric  int
	nearest int
}

// fetch reads and classifies the sample at volume position p.
func (c *levelContext) fetch(p mgl64.Vec3) voxel {
	g, f := c.grid, c.feat
	ix, iy, iz := int(p[0]), int(p[1]), int(p[2])
	idx := g.Index(ix, iy, iz)

	var lum, grad, mean, diff int
	var r, gg, b int
	if c.lvl.Interpolation == Trilinear {
		fx, fy, fz := p[0]-float64(ix), p[1]-float64(iy), p[2]-float64(iz)
		tri := func(buf []byte) int {
			return c.trilinear(buf, idx, fx, fy, fz)
		}
		lum = tri(g.Data[models.Lum])
		grad, mean, diff = tri(f.Gradient), tri(f.Mean), tri(f.Diff)
		if c.snap.VoxelColor {
			r, gg, b = tri(g.Data[models.Red]), tri(g.Data[models.Green]), tri(g.Data[models.Blue])
		}
	} else {
		lum = int(g.Data[models.Lum][idx])
		grad, mean, diff = int(f.Gradient[idx]), int(f.Mean[idx]), int(f.Diff[idx])
		if c.snap.VoxelColor {
			r, gg, b = int(g.Data[models.Red][idx]), int(g.Data[models.Green][idx]), int(g.Data[models.Blue][idx])
		}
	}

	v := voxel{
		alpha:   c.snap.Alpha(lum, grad, mean, diff, f.PaintAlpha[idx]),
		metric:  lum,
		nearest: idx,
	}
	if v.alpha == 0 {
		return v
	}
	if c.snap.VoxelColor {
		v.color = transfer.RGB(uint8(r), uint8(gg), uint8(b))
		v.metric = r + gg + b
	} else {
		v.color = c.snap.Color(lum, grad, mean, diff, f.PaintColor[idx])
	}
	return v
}

// trilinear blends the 8 voxels around idx.
func (c *levelContext) trilinear(buf []byte, idx int, fx, fy, fz float64) int {
	sy, sz := c.sy, c.sz
	lerp := func(a, b byte, t float64) float64 { return float64(a) + (float64(b)-float64(a))*t }
	x00 := lerp(buf[idx], buf[idx+1], fx)
	x10 := lerp(buf[idx+sy], buf[idx+sy+1], fx)
	x01 := lerp(buf[idx+sz], buf[idx+sz+1], fx)
	x11 := lerp(buf[idx+sy+sz], buf[idx+sy+sz+1], fx)
	y0 := x00 + (x10-x00)*fy
	y1 := x01 + (x11-x01)*fy
	return int(y0 + (y1-y0)*fz + 0.5)
}

// span returns the sample range [k0, k1] of a ray starting at p0 that
// lies inside the volume box, and whether the ray starts inside it.
func (c *levelContext) span(p0 mgl64.Vec3, jit float64) (k0, k1 int, inside, ok bool) {
	tMin, tMax := 0.0, float64(c.steps)
	for a := 0; a < 3; a++ {
		d := c.step[a]
		if d == 0 {
			if p0[a] < 0 || p0[a] >= c.dims[a] {
				return 0, 0, false, false
			}
			continue
		}
		t0 := -p0[a] / d
		t1 := (c.dims[a] - p0[a]) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
	}
	if tMin > tMax {
		return 0, 0, false, false
	}
	k0 = int(math.Ceil(tMin - jit))
	if k0 < 0 {
		k0 = 0
	}
	k1 = int(math.Floor(tMax - jit))
	if k1 > c.steps {
		k1 = c.steps
	}
	return k0, k1, tMin == 0, k0 <= k1
}

func (c *levelContext) contains(p mgl64.Vec3) bool {
	return p[0] >= 0 && p[1] >= 0 && p[2] >= 0 && p[0] < c.dims[0] && p[1] < c.dims[1] && p[2] < c.dims[2]
}

// march casts the ray of pixel (x, y) and returns its ARGB colour and the
// number of samples taken.
func (c *levelContext) march(x, y int) (uint32, int) {
	p0 := c.origin.Add(c.dx.Mul(float64(x))).Add(c.dy.Mul(float64(y)))
	jit := jitter(x, y)
	k0, k1, startedInside, ok := c.span(p0, jit)
	if !ok {
		return c.bg, 0
	}
	startedInside = startedInside && c.job.Params.Clip > 0

	mode := c.job.Params.Mode
	var acc, normal mgl64.Vec3
	var sumAlpha float64
	var bestColor uint32
	trans, best := 1.0, -1
	entered, n := false, 0
	if c.light && startedInside {
		normal = c.step.Normalize().Mul(startNormalWeight)
	}

	for k := k0; k <= k1; k++ {
		p := p0.Add(c.step.Mul(float64(k) + jit))
		if !c.contains(p) {
			if entered {
				break
			}
			continue
		}
		entered = true
		n++

		v := c.fetch(p)
		if v.alpha == 0 {
			continue
		}
		a := c.alpha[v.alpha]
		col := rgbVec(v.color)

		switch mode {
		case Volume:
			w := a * trans
			acc = acc.Add(col.Mul(w))
			if c.light {
				normal = normal.Add(c.normalAt(v.nearest).Mul(w))
			}
			trans *= 1 - a
		case Projection:
			acc = acc.Add(col.Mul(a))
			sumAlpha += a
		case ProjectionMax:
			if v.metric > best {
				best = v.metric
				bestColor = v.color
			}
		}
		if mode == Volume && trans < earlyTermination {
			break
		}
	}

	switch mode {
	case Projection:
		if sumAlpha == 0 {
			return c.bg, n
		}
		return pack(acc.Mul(1 / sumAlpha)), n
	case ProjectionMax:
		if best < 0 {
			return c.bg, n
		}
		return argb(bestColor), n
	}

	if trans == 1 {
		return c.bg, n
	}
	if c.light {
		acc = c.shade(acc, normal, 1-trans)
	}
	return pack(acc.Add(rgbVec(c.bg).Mul(trans))), n
}

func (c *levelContext) normalAt(idx int) mgl64.Vec3 {
	f := c.feat
	return mgl64.Vec3{
		float64(int(f.NormalX[idx]) - 128),
		float64(int(f.NormalY[idx]) - 128),
		float64(int(f.NormalZ[idx]) - 128),
	}
}

// shade lights the composited colour. The light colour is weighted by
// ambient + diffuse·(N·L) + specular·spec and added to the object
// weighted colour. gradient points towards increasing opacity, so the
// surface normal is its negation; the viewer looks along +z. A zero
// gradient leaves only the ambient term.
func (c *levelContext) shade(col, gradient mgl64.Vec3, opacity float64) mgl64.Vec3 {
	l := c.job.Params.Light
	var diffuse, specular float64
	if gradient.Len() > 0 {
		nrm := c.job.Pose.NormalToScreen(gradient).Normalize().Mul(-1)
		nl := nrm.Dot(c.lightDir)
		diffuse = math.Max(0, nl)

		refl := nrm.Mul(2 * nl).Sub(c.lightDir)
		rv := math.Max(0, -refl[2])
		specular = math.Pow(rv, l.Shine) * (l.Shine + 2) / (2 * math.Pi)
	}

	factor := l.Ambient + l.Diffuse*diffuse + l.Specular*specular
	return col.Mul(l.Object).Add(c.lightColor.Mul(factor * opacity))
}

// jitter returns a per-pixel offset in [0, 1) for the first sample.
func jitter(x, y int) float64 {
	h := uint32(x)*0x9e3779b1 ^ uint32(y)*0x85ebca77
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	return float64(h>>8) / (1 << 24)
}

func rgbVec(c uint32) mgl64.Vec3 {
	r, g, b := transfer.Split(c)
	return mgl64.Vec3{float64(r), float64(g), float64(b)}
}

func pack(v mgl64.Vec3) uint32 {
	ch := func(f float64) uint32 {
		if f <= 0 {
			return 0
		}
		if f >= 255 {
			return 255
		}
		return uint32(f + 0.5)
	}
	return 0xff000000 | ch(v[0])<<16 | ch(v[1])<<8 | ch(v[2])
}
