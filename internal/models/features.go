package models

// Features holds the derived per-voxel buffers. Every buffer has the
// padded shape of the Grid it was created for.
type Features struct {
	// Gradient is the local gradient magnitude (0-127)
	Gradient []byte

	// Mean and Diff are the midpoint and half range of the neighbour pair
	// with the largest difference
	Mean []byte
	Diff []byte

	// PaintAlpha is the opacity assigned by region paint
	PaintAlpha []byte

	// PaintColor is the display colour index assigned by region paint.
	// It is also set on neighbours rejected by the fill.
	PaintColor []byte

	// Region marks voxels that were accepted by a region fill
	Region []bool

	// NormalX, NormalY, NormalZ are opacity gradients biased by +128
	NormalX []byte
	NormalY []byte
	NormalZ []byte
}

// NewFeatures allocates zeroed feature buffers matching g.
func NewFeatures(g *Grid) *Features {
	n := g.PaddedLen()
	f := &Features{
		Gradient:   make([]byte, n),
		Mean:       make([]byte, n),
		Diff:       make([]byte, n),
		PaintAlpha: make([]byte, n),
		PaintColor: make([]byte, n),
		Region:     make([]bool, n),
		NormalX:    make([]byte, n),
		NormalY:    make([]byte, n),
		NormalZ:    make([]byte, n),
	}
	for i := range f.NormalX {
		f.NormalX[i] = 128
		f.NormalY[i] = 128
		f.NormalZ[i] = 128
	}
	return f
}

// ClearPaint resets region paint state.
func (f *Features) ClearPaint() {
	for i := range f.PaintAlpha {
		f.PaintAlpha[i] = 0
		f.PaintColor[i] = 0
		f.Region[i] = false
	}
}

// Histograms are accumulated once over the interior voxels at load time.
type Histograms struct {
	// Value counts voxels per luminance
	Value [256]int

	// ValueGrad counts voxels per (luminance, gradient)
	ValueGrad [256][128]int

	// MeanDiff counts voxels per (mean, diff)
	MeanDiff [256][128]int
}

// Merge adds the counts of o.
func (h *Histograms) Merge(o *Histograms) {
	for i := 0; i < 256; i++ {
		h.Value[i] += o.Value[i]
		for j := 0; j < 128; j++ {
			h.ValueGrad[i][j] += o.ValueGrad[i][j]
			h.MeanDiff[i][j] += o.MeanDiff[i][j]
		}
	}
}
