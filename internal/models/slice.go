package models

import (
	"image"
)

// Slice represents a single image of a stack before it is packed into a Grid
type Slice struct {
	// Image is the decoded slice
	Image image.Image

	// Index is the position of this slice in the sorted stack
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// Spacing is the physical size of a voxel along each axis
type Spacing struct {
	X, Y, Z float64
}

// ZAspect returns the default z stretch derived from the voxel spacing.
func (s Spacing) ZAspect() float64 {
	if s.X <= 0 || s.Z <= 0 {
		return 1
	}
	return s.Z / s.X
}
