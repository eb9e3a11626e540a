// Package transform maintains the camera pose of the volume and maps points
// between volume space and screen space.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"volraycast/pkg/log"
)

var logger = log.New("transform")

// ErrSingular is returned when the forward matrix cannot be inverted.
var ErrSingular = errors.New("singular transform")

// minAxis is the shortest trackball axis treated as a rotation.
const minAxis = 1e-9

// Pose is an immutable snapshot of a Transform used by a render in flight.
type Pose struct {
	// Forward maps volume space to screen space
	Forward mgl64.Mat4

	// Inverse maps screen space to volume space
	Inverse mgl64.Mat4

	// Rotation is the accumulated rotation without scale or z stretch
	Rotation mgl64.Mat3

	Scale   float64
	ZAspect float64

	// ScreenWidth and ScreenHeight are the viewport size in pixels
	ScreenWidth  int
	ScreenHeight int
}

// Vol2Screen maps a volume-space point to screen space.
func (p Pose) Vol2Screen(v mgl64.Vec3) mgl64.Vec3 {
	return p.Forward.Mul4x1(v.Vec4(1)).Vec3()
}

// Screen2Vol maps a screen-space point to volume space.
func (p Pose) Screen2Vol(s mgl64.Vec3) mgl64.Vec3 {
	return p.Inverse.Mul4x1(s.Vec4(1)).Vec3()
}

// NormalToScreen rotates a volume-space gradient into screen space,
// compensating for the z stretch.
func (p Pose) NormalToScreen(n mgl64.Vec3) mgl64.Vec3 {
	n[2] /= p.ZAspect
	return p.Rotation.Mul3x1(n)
}

// Transform holds the camera pose: accumulated trackball rotation, pan
// offset, zoom and z stretch. The forward and inverse matrices are
// recomputed whenever one of them changes.
type Transform struct {
	volW, volH, volD float64
	screenW, screenH int

	scale   float64
	zAspect float64
	offX    float64
	offY    float64

	rot mgl64.Mat4

	forward mgl64.Mat4
	inverse mgl64.Mat4

	// angles are the Euler angles of rot in degrees
	angles [3]float64
}

// New creates a transform for a volume of the given size shown in a
// viewport of screenW x screenH pixels.
func New(volW, volH, volD, screenW, screenH int) *Transform {
	t := &Transform{
		volW:    float64(volW),
		volH:    float64(volH),
		volD:    float64(volD),
		screenW: screenW,
		screenH: screenH,
		scale:   1,
		zAspect: 1,
		rot:     mgl64.Ident4(),
	}
	if err := t.initialize(); err != nil {
		logger.Warningf("initial transform: %v", err)
	}
	return t
}

// SetMouseMovement applies a virtual trackball drag from (xStart, yStart)
// to (xAct, yAct). Both points are projected onto a hemisphere of radius
// viewportWidth centred on the screen. The incremental rotation is composed
// after the accumulated one.
func (t *Transform) SetMouseMovement(xAct, yAct, xStart, yStart, viewportWidth int) {
	inc, ok := trackball(xAct, yAct, xStart, yStart, t.screenW, t.screenH, viewportWidth)
	if !ok {
		return
	}
	prev := t.rot
	t.rot = inc.Mul4(t.rot)
	if err := t.initialize(); err != nil {
		t.rot = prev
		logger.Debugf("rotation rejected: %v", err)
	}
}

// SetMouseMovementOffset pans the view by a screen delta.
func (t *Transform) SetMouseMovementOffset(dx, dy int) {
	prevX, prevY := t.offX, t.offY
	t.offX += float64(dx) / t.scale
	t.offY += float64(dy) / t.scale
	if err := t.initialize(); err != nil {
		t.offX, t.offY = prevX, prevY
	}
}

// SetScale changes the zoom factor.
func (t *Transform) SetScale(scale float64) {
	prev := t.scale
	t.scale = scale
	if err := t.initialize(); err != nil {
		t.scale = prev
		logger.Debugf("scale %f rejected: %v", scale, err)
	}
}

// SetZAspect changes the z stretch. Zero is replaced by 0.01.
func (t *Transform) SetZAspect(aspect float64) {
	if aspect == 0 {
		aspect = 0.01
	}
	prev := t.zAspect
	t.zAspect = aspect
	if err := t.initialize(); err != nil {
		t.zAspect = prev
	}
}

// SetView replaces the accumulated rotation with R = Rz * Ry * Rx.
func (t *Transform) SetView(degX, degY, degZ float64) {
	prev := t.rot
	t.rot = mgl64.HomogRotate3DZ(mgl64.DegToRad(degZ)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(degY))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(degX)))
	if err := t.initialize(); err != nil {
		t.rot = prev
	}
}

// SetScreenSize changes the viewport size.
func (t *Transform) SetScreenSize(w, h int) {
	t.screenW, t.screenH = w, h
	if err := t.initialize(); err != nil {
		logger.Debugf("screen size %dx%d rejected: %v", w, h, err)
	}
}

// Vol2Screen maps a volume-space point to screen space.
func (t *Transform) Vol2Screen(x, y, z float64) mgl64.Vec3 {
	return t.forward.Mul4x1(mgl64.Vec4{x, y, z, 1}).Vec3()
}

// Screen2Vol maps a screen-space point to volume space.
func (t *Transform) Screen2Vol(x, y, z float64) mgl64.Vec3 {
	return t.inverse.Mul4x1(mgl64.Vec4{x, y, z, 1}).Vec3()
}

// Rotation returns the accumulated rotation matrix.
func (t *Transform) Rotation() mgl64.Mat4 { return t.rot }

// Angles returns the Euler angles (x, y, z) of the rotation in degrees.
func (t *Transform) Angles() [3]float64 { return t.angles }

// Scale returns the zoom factor.
func (t *Transform) Scale() float64 { return t.scale }

// ZAspect returns the z stretch.
func (t *Transform) ZAspect() float64 { return t.zAspect }

// Pose snapshots the current matrices.
func (t *Transform) Pose() Pose {
	return Pose{
		Forward:      t.forward,
		Inverse:      t.inverse,
		Rotation:     t.rot.Mat3(),
		Scale:        t.scale,
		ZAspect:      t.zAspect,
		ScreenWidth:  t.screenW,
		ScreenHeight: t.screenH,
	}
}

// initialize rebuilds the forward matrix
//
//	M = T(screen centre) * S(scale) * T(pan) * R * Z(zAspect) * T(-volume centre)
//
// and its inverse. On a singular matrix the previous matrices are kept.
func (t *Transform) initialize() error {
	center := mgl64.Translate3D(-t.volW/2, -t.volH/2, -t.volD/2)
	stretch := mgl64.Scale3D(1, 1, t.zAspect)
	pan := mgl64.Translate3D(t.offX, t.offY, 0)
	zoom := mgl64.Scale3D(t.scale, t.scale, t.scale)
	screen := mgl64.Translate3D(float64(t.screenW)/2, float64(t.screenH)/2, 0)

	forward := screen.Mul4(zoom).Mul4(pan).Mul4(t.rot).Mul4(stretch).Mul4(center)
	inverse, err := invert(forward)
	if err != nil {
		return err
	}

	t.forward = forward
	t.inverse = inverse
	t.angles = eulerAngles(t.rot)
	return nil
}

// invert computes the inverse of m with pivoting LU decomposition.
func invert(m mgl64.Mat4) (mgl64.Mat4, error) {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mgl64.Mat4{}, fmt.Errorf("%w: non-finite element", ErrSingular)
		}
	}

	data := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			data[r*4+c] = m.At(r, c)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(4, 4, data)); err != nil {
		return mgl64.Mat4{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var out mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out.Set(r, c, inv.At(r, c))
		}
	}
	return out, nil
}

// eulerAngles decomposes R = Rz * Ry * Rx into degrees. Near gimbal lock
// (|m20| close to 1) z is fixed to 0 and x absorbs the remaining rotation.
func eulerAngles(r mgl64.Mat4) [3]float64 {
	m20 := mgl64.Clamp(r.At(2, 0), -1, 1)
	var x, y, z float64
	y = -math.Asin(m20)
	if math.Abs(m20) < 1-1e-9 {
		x = math.Atan2(r.At(2, 1), r.At(2, 2))
		z = math.Atan2(r.At(1, 0), r.At(0, 0))
	} else {
		x = math.Atan2(-r.At(1, 2), r.At(1, 1))
		z = 0
	}
	return [3]float64{mgl64.RadToDeg(x), mgl64.RadToDeg(y), mgl64.RadToDeg(z)}
}

// trackball returns the incremental rotation of a drag. ok is false when
// the two points project onto the same direction.
func trackball(xAct, yAct, xStart, yStart, screenW, screenH, radius int) (mgl64.Mat4, bool) {
	if radius <= 0 {
		return mgl64.Ident4(), false
	}
	cx, cy := float64(screenW)/2, float64(screenH)/2
	r := float64(radius)

	a := sphere(float64(xStart)-cx, float64(yStart)-cy, r)
	b := sphere(float64(xAct)-cx, float64(yAct)-cy, r)

	axis := a.Cross(b)
	if axis.Len() < minAxis {
		return mgl64.Ident4(), false
	}
	angle := math.Acos(mgl64.Clamp(a.Dot(b), -1, 1))
	return mgl64.HomogRotate3D(angle, axis.Normalize()), true
}

// sphere projects a centred screen point onto the unit hemisphere.
// Points outside the radius land on the rim.
func sphere(x, y, r float64) mgl64.Vec3 {
	v := mgl64.Vec3{x / r, y / r, 0}
	d := v[0]*v[0] + v[1]*v[1]
	if d > 1 {
		return v.Mul(1 / math.Sqrt(d))
	}
	v[2] = -math.Sqrt(1 - d)
	return v
}
