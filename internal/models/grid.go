package models

import "fmt"

// Pad is the number of replicated border voxels on each side of every axis.
const Pad = 2

// Channel indices into Grid.Data
const (
	Lum = iota
	Red
	Green
	Blue
)

// Grid is a padded 8-bit voxel volume. Every channel lives in one flat
// buffer of PaddedLen() bytes. Coordinates passed to the accessors are
// unpadded, so valid positions run from -Pad to Width+Pad-1 on the x axis.
type Grid struct {
	// Width, Height, Depth are the unpadded dimensions in voxels
	Width, Height, Depth int

	// Channels is 1 for grayscale volumes and 4 for luminance plus RGB
	Channels int

	// Data holds one padded buffer per channel, Lum first
	Data [][]byte

	// Spacing is the physical voxel size
	Spacing Spacing

	pw, ph, pd int
}

// NewGrid allocates a zeroed grid with the given unpadded dimensions.
func NewGrid(width, height, depth, channels int) (*Grid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%dx%d", width, height, depth)
	}
	if channels != 1 && channels != 4 {
		return nil, fmt.Errorf("invalid channel count %d (must be 1 or 4)", channels)
	}

	g := &Grid{
		Width:    width,
		Height:   height,
		Depth:    depth,
		Channels: channels,
		Spacing:  Spacing{X: 1, Y: 1, Z: 1},
		pw:       width + 2*Pad,
		ph:       height + 2*Pad,
		pd:       depth + 2*Pad,
	}
	g.Data = make([][]byte, channels)
	for c := range g.Data {
		g.Data[c] = make([]byte, g.PaddedLen())
	}
	return g, nil
}

// PaddedDims returns the padded dimensions.
func (g *Grid) PaddedDims() (int, int, int) { return g.pw, g.ph, g.pd }

// PaddedLen is the length of every padded buffer.
func (g *Grid) PaddedLen() int { return g.pw * g.ph * g.pd }

// IsRGB reports whether the grid carries colour channels.
func (g *Grid) IsRGB() bool { return g.Channels == 4 }

// Strides returns the index deltas of one step along y and z.
func (g *Grid) Strides() (int, int) { return g.pw, g.pw * g.ph }

// Index maps unpadded coordinates to the flat buffer index.
func (g *Grid) Index(x, y, z int) int {
	checkBounds(g, x, y, z)
	return ((z+Pad)*g.ph+(y+Pad))*g.pw + x + Pad
}

// At returns the voxel of channel c.
func (g *Grid) At(c, x, y, z int) byte {
	return g.Data[c][g.Index(x, y, z)]
}

// Set stores an interior voxel of channel c. Borders are refreshed by PadBorders.
func (g *Grid) Set(c, x, y, z int, v byte) {
	g.Data[c][g.Index(x, y, z)] = v
}

// Contains reports whether unpadded coordinates lie inside the volume.
func (g *Grid) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Width && y < g.Height && z < g.Depth
}

// PadBorders replicates the nearest interior voxel into the border of
// every channel.
func (g *Grid) PadBorders() {
	for _, buf := range g.Data {
		g.Replicate(buf)
	}
}

// Replicate fills the border of any buffer shaped like the padded grid
// with copies of the nearest interior voxel (clamp to edge).
func (g *Grid) Replicate(buf []byte) {
	for pz := 0; pz < g.pd; pz++ {
		sz := clampInt(pz-Pad, 0, g.Depth-1) + Pad
		for py := 0; py < g.ph; py++ {
			sy := clampInt(py-Pad, 0, g.Height-1) + Pad
			dst := (pz*g.ph + py) * g.pw
			if pz != sz || py != sy {
				src := (sz*g.ph + sy) * g.pw
				copy(buf[dst:dst+g.pw], buf[src:src+g.pw])
			}
			for p := 0; p < Pad; p++ {
				buf[dst+p] = buf[dst+Pad]
				buf[dst+g.pw-1-p] = buf[dst+g.pw-1-Pad]
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
