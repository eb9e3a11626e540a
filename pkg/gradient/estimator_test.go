package gradient

import (
	"testing"

	"volraycast/internal/models"
	"volraycast/pkg/transfer"
	"volraycast/pkg/volume"
)

func TestRampNormals(t *testing.T) {
	g, err := volume.Ramp(33, 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	feat, _ := volume.Analyze(g, 2)
	c := transfer.NewClassifier(g, feat)

	e := New(g, feat, 3)
	e.Calculate(c.Snapshot())

	for x := 2; x < 31; x++ {
		idx := g.Index(x, 3, 3)
		if feat.NormalX[idx] <= 128 {
			t.Errorf("Expected positive x gradient at x=%d, got %d", x, feat.NormalX[idx])
		}
		if feat.NormalY[idx] != 128 || feat.NormalZ[idx] != 128 {
			t.Errorf("Expected zero y/z gradient at x=%d, got %d %d", x, feat.NormalY[idx], feat.NormalZ[idx])
		}
	}
}

func TestSphereNormalsPointInwards(t *testing.T) {
	g, err := volume.Sphere(21, 8)
	if err != nil {
		t.Fatal(err)
	}
	feat, _ := volume.Analyze(g, 2)
	c := transfer.NewClassifier(g, feat)
	c.Luminance.Stroke(0, 0, 255, 255, false)
	c.Luminance.Stroke(0, 0, 0, 0, false)
	c.Touch()

	e := New(g, feat, 4)
	e.Calculate(c.Snapshot())

	right := g.Index(18, 10, 10)
	left := g.Index(2, 10, 10)
	if feat.NormalX[right] >= 128 || feat.NormalX[left] <= 128 {
		t.Errorf("Expected x gradients towards the centre, got %d (right) %d (left)", feat.NormalX[right], feat.NormalX[left])
	}
	below := g.Index(10, 10, 18)
	if feat.NormalZ[below] >= 128 {
		t.Errorf("Expected z gradient towards the centre, got %d", feat.NormalZ[below])
	}
}

func TestClampAndBias(t *testing.T) {
	cases := map[int]byte{0: 128, 127: 255, 500: 255, -127: 1, -1000: 1, 5: 133}
	for in, want := range cases {
		if got := bias(in); got != want {
			t.Errorf("Expected bias(%d) = %d, got %d", in, want, got)
		}
	}
}

func TestRefreshIsLazy(t *testing.T) {
	g, _ := volume.Ramp(8, 8, 8)
	feat := models.NewFeatures(g)
	c := transfer.NewClassifier(g, feat)
	e := New(g, feat, 2)

	if e.Refresh(c.Snapshot(), false) {
		t.Errorf("Expected no recompute without lighting")
	}
	if !e.Refresh(c.Snapshot(), true) {
		t.Errorf("Expected first refresh to compute")
	}
	if e.Refresh(c.Snapshot(), true) {
		t.Errorf("Expected unchanged transfer function to skip the recompute")
	}

	c.Luminance.ClearAlpha()
	c.Touch()
	if !e.Refresh(c.Snapshot(), true) {
		t.Errorf("Expected recompute after a transfer function change")
	}
	for z := 0; z < 8; z++ {
		idx := g.Index(4, 4, z)
		if feat.NormalX[idx] != 128 {
			t.Fatalf("Expected flat normals for a transparent volume, got %d", feat.NormalX[idx])
		}
	}

	e.Invalidate()
	if !e.Refresh(c.Snapshot(), true) {
		t.Errorf("Expected recompute after Invalidate")
	}
}
