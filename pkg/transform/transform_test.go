package transform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func near(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() <= eps
}

// TestRoundTrip checks Screen2Vol(Vol2Screen(p)) == p for a set of poses
func TestRoundTrip(t *testing.T) {
	poses := []struct {
		name  string
		setup func(tr *Transform)
	}{
		{"identity", func(tr *Transform) {}},
		{"rotated", func(tr *Transform) { tr.SetView(115, 41, 17) }},
		{"zoomed", func(tr *Transform) { tr.SetView(10, 20, 30); tr.SetScale(3.5) }},
		{"stretched", func(tr *Transform) { tr.SetZAspect(2.5); tr.SetMouseMovement(300, 200, 256, 256, 512) }},
		{"panned", func(tr *Transform) { tr.SetScale(0.5); tr.SetMouseMovementOffset(40, -25) }},
	}

	points := []mgl64.Vec3{
		{0, 0, 0}, {63, 0, 0}, {0, 47, 0}, {0, 0, 31}, {63, 47, 31}, {12.5, 33.25, 7.75},
	}

	for _, tc := range poses {
		tr := New(64, 48, 32, 512, 512)
		tc.setup(tr)
		for _, p := range points {
			s := tr.Vol2Screen(p[0], p[1], p[2])
			back := tr.Screen2Vol(s[0], s[1], s[2])
			if !near(back, p, 1e-3) {
				t.Errorf("%s: expected %v, got %v", tc.name, p, back)
			}

			pose := tr.Pose()
			if !near(pose.Screen2Vol(pose.Vol2Screen(p)), p, 1e-3) {
				t.Errorf("%s: pose round trip failed for %v", tc.name, p)
			}
		}
	}
}

// TestVolumeCentreMapsToScreenCentre checks the centring of the forward matrix
func TestVolumeCentreMapsToScreenCentre(t *testing.T) {
	tr := New(64, 48, 32, 400, 300)
	tr.SetView(30, 60, 90)
	tr.SetScale(2)

	c := tr.Vol2Screen(32, 24, 16)
	if !near(c, mgl64.Vec3{200, 150, 0}, 1e-9) {
		t.Errorf("Expected centre at (200,150,0), got %v", c)
	}
}

// TestTrackballNoop checks that a zero-length drag leaves the rotation unchanged
func TestTrackballNoop(t *testing.T) {
	tr := New(32, 32, 32, 256, 256)
	tr.SetView(12, 34, 56)
	before := tr.Rotation()

	tr.SetMouseMovement(100, 120, 100, 120, 256)

	if tr.Rotation() != before {
		t.Errorf("Expected rotation unchanged, got %v", tr.Rotation())
	}
}

// TestTrackballComposesAfter checks R_new = R_inc * R_old
func TestTrackballComposesAfter(t *testing.T) {
	tr := New(32, 32, 32, 256, 256)
	tr.SetView(0, 0, 45)
	old := tr.Rotation()

	tr.SetMouseMovement(160, 128, 128, 128, 256)
	inc, ok := trackball(160, 128, 128, 128, 256, 256, 256)
	if !ok {
		t.Fatal("Expected a valid incremental rotation")
	}

	if !tr.Rotation().ApproxEqualThreshold(inc.Mul4(old), 1e-12) {
		t.Errorf("Expected incremental rotation composed after the old one")
	}
}

// TestEulerAngles checks the decomposition against SetView
func TestEulerAngles(t *testing.T) {
	tr := New(16, 16, 16, 128, 128)
	tr.SetView(20, -35, 50)

	a := tr.Angles()
	want := [3]float64{20, -35, 50}
	for i := range a {
		if math.Abs(a[i]-want[i]) > 1e-6 {
			t.Errorf("Expected angle %d to be %f, got %f", i, want[i], a[i])
		}
	}

	// gimbal lock: y = 90 degrees
	tr.SetView(0, 90, 0)
	a = tr.Angles()
	if math.Abs(a[1]-90) > 1e-6 || a[2] != 0 {
		t.Errorf("Expected gimbal branch (y=90, z=0), got %v", a)
	}
}

// TestZeroAspectReplaced checks that a zero z aspect stays invertible
func TestZeroAspectReplaced(t *testing.T) {
	tr := New(16, 16, 16, 128, 128)
	tr.SetZAspect(0)
	if tr.ZAspect() != 0.01 {
		t.Errorf("Expected z aspect 0.01, got %f", tr.ZAspect())
	}
}

// TestSingularKeepsPreviousPose checks that a degenerate scale is rejected
func TestSingularKeepsPreviousPose(t *testing.T) {
	tr := New(16, 16, 16, 128, 128)
	tr.SetScale(2)
	before := tr.Pose()

	tr.SetScale(0)

	if tr.Scale() != 2 {
		t.Errorf("Expected scale 2 to be kept, got %f", tr.Scale())
	}
	if tr.Pose().Inverse != before.Inverse {
		t.Errorf("Expected inverse matrix unchanged")
	}

	if _, err := invert(mgl64.Mat4{}); err == nil {
		t.Errorf("Expected error inverting the zero matrix")
	}
}

// TestLightDirection checks that the light trackball rotates its base vector
func TestLightDirection(t *testing.T) {
	l := NewLight(mgl64.Vec3{0, 0, -1}, 256, 256)
	if !near(l.Direction(), mgl64.Vec3{0, 0, -1}, 1e-12) {
		t.Errorf("Expected initial direction (0,0,-1), got %v", l.Direction())
	}

	l.SetMouseMovement(200, 128, 128, 128, 256)
	d := l.Direction()
	if near(d, mgl64.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("Expected direction to change after a drag")
	}
	if math.Abs(d.Len()-1) > 1e-9 {
		t.Errorf("Expected unit direction, got length %f", d.Len())
	}
}
