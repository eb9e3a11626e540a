package transfer

import (
	"testing"

	"volraycast/internal/models"
)

func newTestGrid(t *testing.T, w, h, d int, fill func(x, y, z int) byte) (*models.Grid, *models.Features) {
	t.Helper()
	g, err := models.NewGrid(w, h, d, 1)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g.Set(models.Lum, x, y, z, fill(x, y, z))
			}
		}
	}
	g.PadBorders()
	return g, models.NewFeatures(g)
}

func TestOpacityOption(t *testing.T) {
	if NoOpacity.IsSet() {
		t.Errorf("Expected NoOpacity to be unset")
	}
	zero := OpacityOf(0)
	if !zero.IsSet() {
		t.Errorf("Expected OpacityOf(0) to be set")
	}
	if zero == NoOpacity {
		t.Errorf("Expected zero opacity to differ from unset")
	}
	if v := OpacityOf(250).Offset(20).Or(0); v != 255 {
		t.Errorf("Expected clamp to 255, got %d", v)
	}
	if NoOpacity.Offset(20).IsSet() {
		t.Errorf("Expected offset to keep unset")
	}
}

// TestScaleAlphaClamps checks the [0,255] invariant for every mode
func TestScaleAlphaClamps(t *testing.T) {
	g, f := newTestGrid(t, 8, 8, 8, func(x, y, z int) byte { return 100 })

	lum := NewLuminance()
	lum.Stroke(0, 300, 255, -50, false)
	lum.SetOffset(80)
	lum.ScaleAlpha()
	for v := 0; v < 256; v++ {
		if a := lum.Raw(v); a < 0 || a > 255 {
			t.Fatalf("Expected luminance alpha in [0,255], got %d at %d", a, v)
		}
	}

	lg := NewLumGrad(grayPalette())
	lg.Paint(100, 60, 250, false, RGB(1, 2, 3))
	lg.SetOffset(100)
	lg.ScaleAlpha()
	lg.SetOffset(-400)
	lg.ScaleAlpha()
	for v := 0; v < 256; v++ {
		for gr := 0; gr < 128; gr++ {
			if a := lg.Raw(v, gr); a < 0 || a > 255 {
				t.Fatalf("Expected lumgrad alpha in [0,255], got %d", a)
			}
		}
	}

	md := NewMeanDiff(grayPalette())
	md.Paint(40, 10, 200, false, RGB(9, 9, 9))
	md.Paint(200, 100, 0, true, 0)
	md.SetOffset(90)
	md.ScaleAlpha()
	if a, ok := md.Cell(40, 10).Get(); !ok || a != 255 {
		t.Errorf("Expected set cell clamped to 255, got %d (set=%v)", a, ok)
	}
	if a, ok := md.Cell(200, 100).Get(); !ok || a != 90 {
		t.Errorf("Expected erased cell to hold a real value of 90 after offset, got %d (set=%v)", a, ok)
	}
	if md.Cell(0, 127).IsSet() {
		t.Errorf("Expected untouched cell to remain unset after ScaleAlpha")
	}
	md.ClearAlpha()
	if md.Cell(40, 10).IsSet() {
		t.Errorf("Expected ClearAlpha to unset cells")
	}

	p := NewPaint3D(g, f, spectrumPalette())
	if _, err := p.FindAndSetSimilar(4, 4, 4, 200, 3, 0, 0); err != nil {
		t.Fatalf("Failed to fill: %v", err)
	}
	p.SetOffset(100)
	p.ScaleAlpha()
	if a := f.PaintAlpha[g.Index(4, 4, 4)]; a != 255 {
		t.Errorf("Expected painted alpha clamped to 255, got %d", a)
	}
}

func TestLuminanceStroke(t *testing.T) {
	l := NewLuminance()
	l.Stroke(20, 0, 10, 100, false)

	if l.Raw(10) != 100 || l.Raw(20) != 0 || l.Raw(15) != 50 {
		t.Errorf("Expected linear stroke 100..0, got %d %d %d", l.Raw(10), l.Raw(15), l.Raw(20))
	}

	l.Stroke(12, 200, 14, 200, true)
	for x := 12; x <= 14; x++ {
		if l.Alpha(x) != 0 {
			t.Errorf("Expected erased bin %d, got %d", x, l.Alpha(x))
		}
	}
	if l.Raw(11) == 0 {
		t.Errorf("Expected bin outside the erase stroke to keep its value")
	}
}

func TestLuminanceAutoSuppressesPeak(t *testing.T) {
	var hist [256]int
	for i := range hist {
		hist[i] = 10
	}
	for i := 0; i < 20; i++ {
		hist[i] = 100000
	}

	l := NewLuminance()
	l.Auto(&hist)

	if l.Alpha(5) >= l.Alpha(200) {
		t.Errorf("Expected dominant background to be more transparent: a(5)=%d a(200)=%d", l.Alpha(5), l.Alpha(200))
	}
}

func TestLumGradAutoFavoursGradient(t *testing.T) {
	var hist [256][128]int
	for v := 0; v < 256; v++ {
		for g := 0; g < 128; g++ {
			hist[v][g] = 50
		}
	}
	m := NewLumGrad(grayPalette())
	m.Auto(&hist)

	if m.Alpha(100, 0) != 0 {
		t.Errorf("Expected zero gradient to be transparent, got %d", m.Alpha(100, 0))
	}
	if m.Alpha(100, 127) != 255 {
		t.Errorf("Expected peak density at max gradient to be opaque, got %d", m.Alpha(100, 127))
	}
}

func TestBrushNeighbourhood(t *testing.T) {
	m := NewLumGrad(grayPalette())
	m.Paint(50, 50, 77, false, RGB(10, 20, 30))

	count := 0
	for v := 0; v < 256; v++ {
		for g := 0; g < 128; g++ {
			if m.Alpha(v, g) == 77 {
				count++
			}
		}
	}
	if count != 13*13 {
		t.Errorf("Expected 169 painted cells, got %d", count)
	}
	if m.Color(44, 56) != RGB(10, 20, 30) || m.Color(43, 50) == RGB(10, 20, 30) {
		t.Errorf("Expected colour only within +-6 of the brush centre")
	}
}

// TestFillContainment checks that a zero tolerance fill visits exactly the connected component
func TestFillContainment(t *testing.T) {
	// two cubes of value 50 separated by a wall of 200; the left one holds a hole
	g, f := newTestGrid(t, 12, 6, 6, func(x, y, z int) byte {
		if x == 6 {
			return 200
		}
		if x == 2 && y == 2 && z == 2 {
			return 51
		}
		return 50
	})

	p := NewPaint3D(g, f, spectrumPalette())
	res, err := p.FindAndSetSimilar(0, 0, 0, 150, 7, 0, 0)
	if err != nil {
		t.Fatalf("Failed to fill: %v", err)
	}

	want := 6*6*6 - 1
	if res.Size != want {
		t.Errorf("Expected region size %d, got %d", want, res.Size)
	}
	for z := 0; z < 6; z++ {
		for y := 0; y < 6; y++ {
			for x := 0; x < 12; x++ {
				idx := g.Index(x, y, z)
				inRegion := x < 6 && !(x == 2 && y == 2 && z == 2)
				if f.Region[idx] != inRegion {
					t.Fatalf("Expected region membership %v at (%d,%d,%d)", inRegion, x, y, z)
				}
				if inRegion && f.PaintAlpha[idx] != 150 {
					t.Fatalf("Expected alpha 150 at (%d,%d,%d), got %d", x, y, z, f.PaintAlpha[idx])
				}
			}
		}
	}

	// rejected neighbours carry the colour but not the opacity
	for _, v := range [][3]int{{2, 2, 2}, {6, 3, 3}} {
		idx := g.Index(v[0], v[1], v[2])
		if f.PaintColor[idx] != 7 {
			t.Errorf("Expected halo colour at %v, got %d", v, f.PaintColor[idx])
		}
		if f.PaintAlpha[idx] != 0 || f.Region[idx] {
			t.Errorf("Expected halo voxel %v outside the region", v)
		}
	}
	if f.PaintColor[g.Index(7, 3, 3)] != 0 {
		t.Errorf("Expected voxel beyond the wall untouched")
	}
	if res.Small {
		t.Errorf("Expected region of %d voxels not to be flagged small", res.Size)
	}
}

func TestFillGradientTolerance(t *testing.T) {
	g, f := newTestGrid(t, 5, 5, 5, func(x, y, z int) byte { return 10 })
	f.Gradient[g.Index(1, 0, 0)] = 30

	p := NewPaint3D(g, f, spectrumPalette())
	res, _ := p.FindAndSetSimilar(0, 0, 0, 100, 1, 0, 20)
	if res.Size != 124 {
		t.Errorf("Expected 124 voxels, got %d", res.Size)
	}
	if f.Region[g.Index(1, 0, 0)] {
		t.Errorf("Expected high gradient voxel rejected")
	}
}

func TestFillSmallRegionWarns(t *testing.T) {
	g, f := newTestGrid(t, 4, 4, 4, func(x, y, z int) byte { return byte(x + 4*y + 16*z) })

	p := NewPaint3D(g, f, spectrumPalette())
	res, err := p.FindAndSetSimilar(1, 1, 1, 90, 2, 0, 127)
	if err != nil {
		t.Fatalf("Failed to fill: %v", err)
	}
	if res.Size != 1 || !res.Small {
		t.Errorf("Expected single voxel flagged small, got %+v", res)
	}
	if f.PaintAlpha[g.Index(1, 1, 1)] != 90 {
		t.Errorf("Expected small fill to be applied anyway")
	}

	if _, err := p.FindAndSetSimilar(9, 0, 0, 90, 2, 0, 0); err == nil {
		t.Errorf("Expected error for seed outside the volume")
	}
}

func TestFillGrowsBeyondInitialQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large fill in short mode")
	}
	g, f := newTestGrid(t, 40, 40, 30, func(x, y, z int) byte { return 0 })

	p := NewPaint3D(g, f, spectrumPalette())
	res, _ := p.FindAndSetSimilar(20, 20, 15, 10, 1, 0, 0)
	if res.Size != 40*40*30 {
		t.Errorf("Expected %d voxels, got %d", 40*40*30, res.Size)
	}
}

func TestColorByProximity(t *testing.T) {
	g, f := newTestGrid(t, 10, 2, 2, func(x, y, z int) byte { return 0 })

	p := NewPaint3D(g, f, spectrumPalette())
	p.FindAndSetSimilar(0, 0, 0, 100, 3, 0, 0)
	p.FindAndSetSimilar(9, 0, 0, 100, 8, 0, 0)

	n := p.ColorByProximity()
	if n != 10*2*2 {
		t.Errorf("Expected 40 recoloured voxels, got %d", n)
	}
	if f.PaintColor[g.Index(2, 1, 1)] != 3 || f.PaintColor[g.Index(8, 0, 1)] != 8 {
		t.Errorf("Expected colours of the nearest seeds, got %d and %d",
			f.PaintColor[g.Index(2, 1, 1)], f.PaintColor[g.Index(8, 0, 1)])
	}

	p.ClearAlpha()
	if len(p.Seeds()) != 0 || f.Region[g.Index(0, 0, 0)] {
		t.Errorf("Expected ClearAlpha to reset regions and seeds")
	}
}

func TestSnapshotIsolated(t *testing.T) {
	g, f := newTestGrid(t, 4, 4, 4, func(x, y, z int) byte { return 0 })
	c := NewClassifier(g, f)
	c.Luminance.Stroke(0, 10, 255, 10, false)
	c.Touch()

	snap := c.Snapshot()
	v := c.Version()

	c.Luminance.Stroke(0, 200, 255, 200, false)
	c.Touch()

	if snap.Alpha(50, 0, 0, 0, 0) != 10 {
		t.Errorf("Expected snapshot to keep alpha 10, got %d", snap.Alpha(50, 0, 0, 0, 0))
	}
	if c.Version() == v {
		t.Errorf("Expected version to change after Touch")
	}
}

func TestSnapshotMeanDiffUnsetTransparent(t *testing.T) {
	g, f := newTestGrid(t, 4, 4, 4, func(x, y, z int) byte { return 0 })
	c := NewClassifier(g, f)
	c.SetMode(ModeMeanDiff)
	c.MeanDiff.Paint(100, 20, 180, false, RGB(255, 0, 0))

	s := c.Snapshot()
	if s.Alpha(0, 0, 100, 20, 0) != 180 {
		t.Errorf("Expected painted cell alpha 180, got %d", s.Alpha(0, 0, 100, 20, 0))
	}
	if s.Alpha(0, 0, 10, 100, 0) != 0 {
		t.Errorf("Expected unset cell to be transparent")
	}
	if s.Color(0, 0, 100, 20, 0) != RGB(255, 0, 0) {
		t.Errorf("Expected painted colour")
	}

	var hist [256][128]int
	hist[10][100] = 5
	img := c.MeanDiff.Preview(&hist)
	if px := img.RGBAAt(10, 127-100); px.R != 255 {
		t.Errorf("Expected histogram density in unset cell, got %v", px)
	}
	if px := img.RGBAAt(100, 127-20); px.R != 180 || px.G != 0 {
		t.Errorf("Expected opacity weighted colour in set cell, got %v", px)
	}
}

func TestAlphaTable(t *testing.T) {
	tab := AlphaTable(1)
	if tab[0] != 0 || tab[255] != 1 {
		t.Errorf("Expected 0 and 1 at the ends, got %f %f", tab[0], tab[255])
	}
	half := AlphaTable(2)
	if half[255] != 0.5 {
		t.Errorf("Expected 0.5 at sampling 2, got %f", half[255])
	}
	coarse := AlphaTable(0.5)
	if coarse[255] != 1 {
		t.Errorf("Expected clamp to 1, got %f", coarse[255])
	}
}

func TestPalettes(t *testing.T) {
	for _, name := range PaletteNames() {
		p, err := LookupPalette(name)
		if err != nil {
			t.Fatalf("Failed to load palette %s: %v", name, err)
		}
		if name != "spectrum" && p[0] != 0 {
			t.Errorf("Expected palette %s to start at black, got %06x", name, p[0])
		}
	}
	if _, err := LookupPalette("nope"); err == nil {
		t.Errorf("Expected error for unknown palette")
	}
	if m, err := ParseMode("meandiff"); err != nil || m != ModeMeanDiff {
		t.Errorf("Expected meandiff mode, got %v (%v)", m, err)
	}
}
