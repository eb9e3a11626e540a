// Package visualization shows a volume as three orthogonal slices through a
// cursor voxel and exports slice sequences as JPEG images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"volraycast/internal/models"
	"volraycast/pkg/transfer"
)

// Pick describes the voxel under a slice position.
type Pick struct {
	// X, Y, Z are voxel coordinates
	X, Y, Z int

	Lum  int
	Grad int
	Mean int
	Diff int

	// RGB is the voxel colour, zero for gray volumes
	RGB uint32
}

// Viewer renders the axis slices of a volume through a cursor voxel.
// Slices are read from the padded grid with nearest lookup.
type Viewer struct {
	grid *models.Grid

	// feat may be nil, in which case picks carry luminance only
	feat *models.Features

	palette transfer.Palette

	// cursor is the voxel all three panes pass through
	cursor [3]int
}

// NewViewer creates a viewer with the cursor at the volume centre and a
// gray palette.
func NewViewer(grid *models.Grid, feat *models.Features) *Viewer {
	p, _ := transfer.LookupPalette("gray")
	return &Viewer{
		grid:    grid,
		feat:    feat,
		palette: p,
		cursor:  [3]int{grid.Width / 2, grid.Height / 2, grid.Depth / 2},
	}
}

// SetPalette sets the colour map of gray volumes.
func (v *Viewer) SetPalette(p transfer.Palette) { v.palette = p }

// SetCursor moves the cursor voxel.
func (v *Viewer) SetCursor(x, y, z int) error {
	if !v.grid.Contains(x, y, z) {
		return fmt.Errorf("cursor (%d, %d, %d) outside %dx%dx%d volume", x, y, z, v.grid.Width, v.grid.Height, v.grid.Depth)
	}
	v.cursor = [3]int{x, y, z}
	return nil
}

// Cursor returns the cursor voxel.
func (v *Viewer) Cursor() (int, int, int) { return v.cursor[0], v.cursor[1], v.cursor[2] }

// paneSize returns the image size of an axis slice: x slices are
// depth x height, y slices width x depth, z slices width x height.
func (v *Viewer) paneSize(axis string) (int, int, int, error) {
	g := v.grid
	switch axis {
	case "x", "X":
		return g.Depth, g.Height, g.Width, nil
	case "y", "Y":
		return g.Width, g.Depth, g.Height, nil
	case "z", "Z":
		return g.Width, g.Height, g.Depth, nil
	}
	return 0, 0, 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// voxel maps pane coordinates (u, v) of an axis slice at position pos to
// voxel coordinates.
func voxel(axis string, u, w, pos int) (int, int, int) {
	switch axis {
	case "x", "X":
		return pos, w, u
	case "y", "Y":
		return u, pos, w
	}
	return u, w, pos
}

// ExtractSlice extracts the slice at position along axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	w, h, n, err := v.paneSize(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s", position, n, axis)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			vx, vy, vz := voxel(axis, x, y, position)
			img.SetRGBA(x, y, v.color(vx, vy, vz))
		}
	}
	return img, nil
}

func (v *Viewer) color(x, y, z int) color.RGBA {
	g := v.grid
	idx := g.Index(x, y, z)
	var c uint32
	if g.IsRGB() {
		c = transfer.RGB(g.Data[models.Red][idx], g.Data[models.Green][idx], g.Data[models.Blue][idx])
	} else {
		c = v.palette[g.Data[models.Lum][idx]]
	}
	r, gg, b := transfer.Split(c)
	return color.RGBA{R: r, G: gg, B: b, A: 255}
}

// Panes returns the x, y and z slices through the cursor.
func (v *Viewer) Panes() (yz, xz, xy image.Image, err error) {
	cx, cy, cz := v.Cursor()
	if yz, err = v.ExtractSlice("x", cx); err != nil {
		return nil, nil, nil, err
	}
	if xz, err = v.ExtractSlice("y", cy); err != nil {
		return nil, nil, nil, err
	}
	if xy, err = v.ExtractSlice("z", cz); err != nil {
		return nil, nil, nil, err
	}
	return yz, xz, xy, nil
}

// ValuesAt picks the voxel at pane position (u, w) of the slice through the
// cursor along axis.
func (v *Viewer) ValuesAt(axis string, u, w int) (Pick, error) {
	pw, ph, _, err := v.paneSize(axis)
	if err != nil {
		return Pick{}, err
	}
	if u < 0 || w < 0 || u >= pw || w >= ph {
		return Pick{}, fmt.Errorf("pane position (%d, %d) outside %dx%d", u, w, pw, ph)
	}

	pos := v.cursor[2]
	switch axis {
	case "x", "X":
		pos = v.cursor[0]
	case "y", "Y":
		pos = v.cursor[1]
	}
	x, y, z := voxel(axis, u, w, pos)

	g := v.grid
	idx := g.Index(x, y, z)
	p := Pick{X: x, Y: y, Z: z, Lum: int(g.Data[models.Lum][idx])}
	if g.IsRGB() {
		p.RGB = transfer.RGB(g.Data[models.Red][idx], g.Data[models.Green][idx], g.Data[models.Blue][idx])
	}
	if v.feat != nil {
		p.Grad = int(v.feat.Gradient[idx])
		p.Mean = int(v.feat.Mean[idx])
		p.Diff = int(v.feat.Diff[idx])
	}
	return p, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	_, _, n, err := v.paneSize(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return fmt.Errorf("saving %s: %w", filename, err)
		}
	}

	return nil
}
