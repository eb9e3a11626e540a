package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"volraycast/internal/models"
	"volraycast/pkg/volume"
)

// testGrid returns a gray volume whose voxel value is x + 10*y + 40*z
func testGrid(t *testing.T, width, height, depth int) *models.Grid {
	t.Helper()
	g, err := models.NewGrid(width, height, depth, 1)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g.Set(models.Lum, x, y, z, byte(x+10*y+40*z))
			}
		}
	}
	g.PadBorders()
	return g
}

// TestNewViewer verifies the cursor starts at the centre
func TestNewViewer(t *testing.T) {
	viewer := NewViewer(testGrid(t, 10, 8, 4), nil)
	x, y, z := viewer.Cursor()
	if x != 5 || y != 4 || z != 2 {
		t.Errorf("Expected cursor (5,4,2), got (%d,%d,%d)", x, y, z)
	}
	if err := viewer.SetCursor(10, 0, 0); err == nil {
		t.Error("Expected error for a cursor outside the volume, got nil")
	}
}

// TestExtractSlice verifies slice sizes and voxel placement along every axis
func TestExtractSlice(t *testing.T) {
	width, height, depth := 6, 5, 4
	viewer := NewViewer(testGrid(t, width, height, depth), nil)

	tests := []struct {
		axis   string
		pos    int
		w, h   int
		u, v   int
		expect int
	}{
		{"z", 2, width, height, 3, 1, 3 + 10 + 80},
		{"x", 4, depth, height, 1, 2, 4 + 20 + 40},
		{"y", 3, width, depth, 5, 2, 5 + 30 + 80},
	}
	for _, tc := range tests {
		img, err := viewer.ExtractSlice(tc.axis, tc.pos)
		if err != nil {
			t.Fatalf("Failed to extract %s slice at %d: %v", tc.axis, tc.pos, err)
		}
		b := img.Bounds()
		if b.Dx() != tc.w || b.Dy() != tc.h {
			t.Errorf("%s: expected %dx%d, got %dx%d", tc.axis, tc.w, tc.h, b.Dx(), b.Dy())
		}
		got := color.GrayModel.Convert(img.At(tc.u, tc.v)).(color.Gray).Y
		if int(got) != tc.expect {
			t.Errorf("%s: expected value %d at (%d,%d), got %d", tc.axis, tc.expect, tc.u, tc.v, got)
		}
	}

	if _, err := viewer.ExtractSlice("z", depth); err == nil {
		t.Error("Expected error for position beyond depth, got nil")
	}
	if _, err := viewer.ExtractSlice("w", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

func TestPanesAndPicking(t *testing.T) {
	g := testGrid(t, 6, 5, 4)
	feat, _ := volume.Analyze(g, 2)
	viewer := NewViewer(g, feat)
	if err := viewer.SetCursor(1, 2, 3); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}

	yz, xz, xy, err := viewer.Panes()
	if err != nil {
		t.Fatalf("Panes: %v", err)
	}
	if yz.Bounds().Dx() != 4 || xz.Bounds().Dy() != 4 || xy.Bounds().Dx() != 6 {
		t.Error("Unexpected pane sizes")
	}

	p, err := viewer.ValuesAt("x", 0, 4)
	if err != nil {
		t.Fatalf("ValuesAt: %v", err)
	}
	if p.X != 1 || p.Y != 4 || p.Z != 0 {
		t.Errorf("Expected voxel (1,4,0), got (%d,%d,%d)", p.X, p.Y, p.Z)
	}
	if p.Lum != 41 {
		t.Errorf("Expected luminance 41, got %d", p.Lum)
	}
	if want := int(feat.Gradient[g.Index(1, 4, 0)]); p.Grad != want {
		t.Errorf("Expected gradient %d, got %d", want, p.Grad)
	}
	if _, err := viewer.ValuesAt("z", 6, 0); err == nil {
		t.Error("Expected error outside the pane, got nil")
	}
}

// TestSaveSlice verifies that slices can be saved to disk
func TestSaveSlice(t *testing.T) {
	// Skip this test in short mode
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "viewer-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	viewer := NewViewer(testGrid(t, 10, 10, 5), nil)
	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	filename := filepath.Join(tempDir, "test_slice.jpg")
	if err := viewer.SaveSlice(img, filename); err != nil {
		t.Fatalf("Failed to save slice: %v", err)
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Saved file does not exist: %s", filename)
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	// Skip this test in short mode
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "viewer-sequence-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	width, height, depth := 5, 5, 3
	viewer := NewViewer(testGrid(t, width, height, depth), nil)

	outputDir := filepath.Join(tempDir, "slices")
	if err := viewer.SaveSliceSequence("z", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
