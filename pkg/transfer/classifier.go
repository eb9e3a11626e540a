// Package transfer implements the four classification models that map
// voxel features to opacity and colour, and the immutable snapshots a
// render reads from.
package transfer

import (
	"fmt"

	"volraycast/internal/models"
)

// Mode selects the active classification model.
type Mode int

const (
	// ModeLuminance classifies by luminance only
	ModeLuminance Mode = iota
	// ModeLumGrad classifies by luminance and gradient magnitude
	ModeLumGrad
	// ModeMeanDiff classifies by local mean and half range
	ModeMeanDiff
	// ModePaint uses per-voxel region paint
	ModePaint
)

var modeNames = map[Mode]string{
	ModeLuminance: "luminance",
	ModeLumGrad:   "lumgrad",
	ModeMeanDiff:  "meandiff",
	ModePaint:     "paint",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a mode name.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown transfer mode %q", name)
}

// Classifier owns the four models and the active mode. Every mutation
// must be followed by Touch so dependent buffers see a new version.
type Classifier struct {
	Luminance *Luminance
	LumGrad   *LumGrad
	MeanDiff  *MeanDiff
	Paint     *Paint3D

	mode        Mode
	palette     Palette
	paletteName string
	rgb         bool
	version     uint64
}

// NewClassifier creates the models for grid with a gray palette.
func NewClassifier(grid *models.Grid, feat *models.Features) *Classifier {
	gray := grayPalette()
	return &Classifier{
		Luminance:   NewLuminance(),
		LumGrad:     NewLumGrad(gray),
		MeanDiff:    NewMeanDiff(gray),
		Paint:       NewPaint3D(grid, feat, spectrumPalette()),
		palette:     gray,
		paletteName: "gray",
		rgb:         grid.IsRGB(),
		version:     1,
	}
}

// Auto derives the luminance and luminance x gradient opacities from the
// histograms.
func (c *Classifier) Auto(h *models.Histograms) {
	c.Luminance.Auto(&h.Value)
	c.LumGrad.Auto(&h.ValueGrad)
	c.Touch()
}

// Touch records a change of any model.
func (c *Classifier) Touch() { c.version++ }

// Version increases on every change.
func (c *Classifier) Version() uint64 { return c.version }

// Mode returns the active model.
func (c *Classifier) Mode() Mode { return c.mode }

// SetMode switches the active model.
func (c *Classifier) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.mode = m
	c.Touch()
}

// SetPalette selects a built-in palette and recolours the 2D models.
func (c *Classifier) SetPalette(name string) error {
	p, err := LookupPalette(name)
	if err != nil {
		return err
	}
	c.palette = p
	c.paletteName = name
	c.LumGrad.ResetColors(p)
	c.MeanDiff.ResetColors(p)
	c.Touch()
	return nil
}

// PaletteName returns the name of the active palette.
func (c *Classifier) PaletteName() string { return c.paletteName }

// Palette returns the active palette.
func (c *Classifier) Palette() Palette { return c.palette }

// SetOffset sets the opacity bias of the active model.
func (c *Classifier) SetOffset(offset int) {
	switch c.mode {
	case ModeLuminance:
		c.Luminance.SetOffset(offset)
	case ModeLumGrad:
		c.LumGrad.SetOffset(offset)
	case ModeMeanDiff:
		c.MeanDiff.SetOffset(offset)
	case ModePaint:
		c.Paint.SetOffset(offset)
	}
	c.Touch()
}

// ScaleAlpha folds the offset of the active model in and clamps.
func (c *Classifier) ScaleAlpha() {
	switch c.mode {
	case ModeLuminance:
		c.Luminance.ScaleAlpha()
	case ModeLumGrad:
		c.LumGrad.ScaleAlpha()
	case ModeMeanDiff:
		c.MeanDiff.ScaleAlpha()
	case ModePaint:
		c.Paint.ScaleAlpha()
	}
	c.Touch()
}

// ClearAlpha resets the active model.
func (c *Classifier) ClearAlpha() {
	switch c.mode {
	case ModeLuminance:
		c.Luminance.ClearAlpha()
	case ModeLumGrad:
		c.LumGrad.ClearAlpha()
	case ModeMeanDiff:
		c.MeanDiff.ClearAlpha()
	case ModePaint:
		c.Paint.ClearAlpha()
	}
	c.Touch()
}

// Snapshot copies the lookup tables of the active model.
func (c *Classifier) Snapshot() *Snapshot {
	s := &Snapshot{
		Mode:       c.mode,
		Version:    c.version,
		VoxelColor: c.rgb && c.mode != ModePaint,
		palette:    c.palette,
	}

	switch c.mode {
	case ModeLuminance:
		for v := 0; v < 256; v++ {
			s.lumAlpha[v] = c.Luminance.Alpha(v)
			s.lumColor[v] = c.palette[v]
		}
	case ModeLumGrad, ModeMeanDiff:
		s.surfAlpha = make([]uint8, SurfaceWidth*SurfaceHeight)
		s.surfColor = make([]uint32, SurfaceWidth*SurfaceHeight)
		for v := 0; v < SurfaceWidth; v++ {
			for g := 0; g < SurfaceHeight; g++ {
				i := v*SurfaceHeight + g
				if c.mode == ModeLumGrad {
					s.surfAlpha[i] = c.LumGrad.Alpha(v, g)
					s.surfColor[i] = c.LumGrad.Color(v, g)
				} else {
					s.surfAlpha[i] = c.MeanDiff.Alpha(v, g)
					s.surfColor[i] = c.MeanDiff.Color(v, g)
				}
			}
		}
	case ModePaint:
		for v := 0; v < 256; v++ {
			s.paintAlpha[v] = c.Paint.Alpha(uint8(v))
		}
		s.paintColor = c.Paint.Colors()
	}
	return s
}

// Snapshot is an immutable copy of the active model's lookup tables.
type Snapshot struct {
	// Mode is the model the tables were taken from
	Mode Mode

	// Version is the classifier version at snapshot time
	Version uint64

	// VoxelColor is set when samples keep their own RGB colour
	VoxelColor bool

	lumAlpha   [256]uint8
	lumColor   [256]uint32
	surfAlpha  []uint8
	surfColor  []uint32
	paintAlpha [256]uint8
	paintColor Palette
	palette    Palette
}

// Alpha returns the opacity (0-255) of a sample.
func (s *Snapshot) Alpha(lum, grad, mean, diff int, paint uint8) uint8 {
	switch s.Mode {
	case ModeLuminance:
		return s.lumAlpha[lum]
	case ModeLumGrad:
		return s.surfAlpha[lum*SurfaceHeight+grad]
	case ModeMeanDiff:
		return s.surfAlpha[mean*SurfaceHeight+diff]
	default:
		return s.paintAlpha[paint]
	}
}

// Color returns the 0xRRGGBB colour of a sample.
func (s *Snapshot) Color(lum, grad, mean, diff int, paintColor uint8) uint32 {
	switch s.Mode {
	case ModeLuminance:
		return s.lumColor[lum]
	case ModeLumGrad:
		return s.surfColor[lum*SurfaceHeight+grad]
	case ModeMeanDiff:
		return s.surfColor[mean*SurfaceHeight+diff]
	default:
		return s.paintColor[paintColor]
	}
}

// PaletteColor returns the palette colour of a luminance.
func (s *Snapshot) PaletteColor(lum int) uint32 { return s.palette[lum] }

// UsesPaint reports whether samples read the paint buffers.
func (s *Snapshot) UsesPaint() bool { return s.Mode == ModePaint }

// AlphaTable maps stored opacity to the per-step compositing opacity
// min(1, (a/255)^2 / sampling).
func AlphaTable(sampling float64) [256]float64 {
	var t [256]float64
	if sampling <= 0 {
		sampling = 1
	}
	for a := range t {
		f := float64(a) / 255
		v := f * f / sampling
		if v > 1 {
			v = 1
		}
		t[a] = v
	}
	return t
}
