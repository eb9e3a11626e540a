// Package render ray casts a padded voxel grid into ARGB frames and
// drives the progressive refinement schedule over a worker pool.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"volraycast/internal/models"
	"volraycast/pkg/cube"
	"volraycast/pkg/transfer"
	"volraycast/pkg/transform"
)

// Mode is the projection mode.
type Mode int

const (
	// Slice shows the clip plane only
	Slice Mode = iota
	// SliceAndBorders shows the clip plane with the cube outline
	SliceAndBorders
	// Volume composites front to back
	Volume
	// Projection averages samples weighted by opacity
	Projection
	// ProjectionMax keeps the brightest sample
	ProjectionMax
)

var modeNames = map[Mode]string{
	Slice:           "slice",
	SliceAndBorders: "slice-borders",
	Volume:          "volume",
	Projection:      "projection",
	ProjectionMax:   "projection-max",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IsPlane reports whether the mode renders the clip plane only.
func (m Mode) IsPlane() bool { return m == Slice || m == SliceAndBorders }

// ParseMode converts a mode name.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", name)
}

// Interpolation selects how samples are read from the grid.
type Interpolation int

const (
	Nearest Interpolation = iota
	Trilinear
)

func (i Interpolation) String() string {
	if i == Trilinear {
		return "trilinear"
	}
	return "nearest"
}

// ParseInterpolation converts an interpolation name.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case "nearest":
		return Nearest, nil
	case "trilinear":
		return Trilinear, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", name)
}

// Lighting holds the Phong parameters of volume mode.
type Lighting struct {
	Enabled bool

	Ambient  float64
	Diffuse  float64
	Specular float64
	Shine    float64

	// Object blends the unshaded colour into the result, 0..1
	Object float64

	// Color is the 0xRRGGBB light colour
	Color uint32

	// Direction points towards the light in screen space
	Direction mgl64.Vec3
}

// Params are the render settings captured into a Job.
type Params struct {
	Mode          Mode
	Interpolation Interpolation

	// Sampling is the number of samples per voxel along a ray
	Sampling float64

	// Clip places the clip plane between the front (0) and back (1) of the
	// projected cube
	Clip float64

	// Background is the 0xRRGGBB colour behind the volume
	Background uint32

	Light Lighting
}

// Job is an immutable render request. Everything a render reads is
// captured here at schedule time.
type Job struct {
	Grid     *models.Grid
	Features *models.Features
	Pose     transform.Pose
	Cube     cube.Cube
	Transfer *transfer.Snapshot
	Params   Params

	// Prepare runs on the scheduler goroutine before the first level while
	// no level is in flight
	Prepare func()
}

// Size returns the frame size of the job.
func (j *Job) Size() (int, int) { return j.Pose.ScreenWidth, j.Pose.ScreenHeight }

// Levels returns the refinement schedule of the job.
func (j *Job) Levels() []Level {
	if j.Params.Mode.IsPlane() {
		return []Level{{Sub: 1, Sampling: 1, Interpolation: Nearest, Final: true}}
	}
	w, h := j.Size()
	return Levels(w, h, j.Params.Sampling, j.Params.Interpolation)
}

// plane returns the screen z of the clip plane.
func (j *Job) plane(b cube.Bounds) float64 {
	return b.ZMin + j.Params.Clip*(b.ZMax-b.ZMin)
}

// Frame is a finished ARGB pixel buffer.
type Frame struct {
	Width  int
	Height int
	Pixels []uint32
}

// NewFrame allocates a transparent frame.
func NewFrame(w, h int) *Frame {
	return &Frame{Width: w, Height: h, Pixels: make([]uint32, w*h)}
}

// At returns the ARGB pixel at (x, y).
func (f *Frame) At(x, y int) uint32 { return f.Pixels[y*f.Width+x] }

// Image converts the frame for encoding.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, p := range f.Pixels {
		img.SetRGBA(i%f.Width, i/f.Width, color.RGBA{uint8(p >> 16), uint8(p >> 8), uint8(p), uint8(p >> 24)})
	}
	return img
}

func argb(rgb uint32) uint32 { return 0xff000000 | rgb&0xffffff }
