package transform

import "github.com/go-gl/mathgl/mgl64"

// Light is a directional light steered by its own trackball.
type Light struct {
	rot     mgl64.Mat4
	base    mgl64.Vec3
	screenW int
	screenH int
}

// NewLight creates a light pointing along base in screen space.
func NewLight(base mgl64.Vec3, screenW, screenH int) *Light {
	if base.Len() < minAxis {
		base = mgl64.Vec3{0, 0, -1}
	}
	return &Light{
		rot:     mgl64.Ident4(),
		base:    base.Normalize(),
		screenW: screenW,
		screenH: screenH,
	}
}

// SetMouseMovement rotates the light with a trackball drag.
func (l *Light) SetMouseMovement(xAct, yAct, xStart, yStart, viewportWidth int) {
	inc, ok := trackball(xAct, yAct, xStart, yStart, l.screenW, l.screenH, viewportWidth)
	if !ok {
		return
	}
	l.rot = inc.Mul4(l.rot)
}

// Direction is the unit vector towards the light in screen space.
func (l *Light) Direction() mgl64.Vec3 {
	return l.rot.Mat3().Mul3x1(l.base).Normalize()
}
