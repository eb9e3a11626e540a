//go:build volraycast_debug

package models

import "fmt"

// checkBounds panics when coordinates fall outside the padded grid.
func checkBounds(g *Grid, x, y, z int) {
	if x < -Pad || y < -Pad || z < -Pad || x >= g.Width+Pad || y >= g.Height+Pad || z >= g.Depth+Pad {
		panic(fmt.Sprintf("voxel (%d,%d,%d) outside padded grid %dx%dx%d", x, y, z, g.Width, g.Height, g.Depth))
	}
}

// DebugBounds reports whether bounds assertions are compiled in.
const DebugBounds = true
