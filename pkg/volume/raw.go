package volume

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"volraycast/internal/models"
)

// RawFormat describes an 8-bit raw dump: samples are stored x fastest,
// then y, then z. RGB dumps interleave three bytes per voxel.
type RawFormat struct {
	Width, Height, Depth int
	RGB                  bool
	Spacing              models.Spacing
}

func (f RawFormat) bytesPerVoxel() int {
	if f.RGB {
		return 3
	}
	return 1
}

// LoadRaw reads a raw dump. Files ending in .zst or .gz are decompressed.
func LoadRaw(path string, format RawFormat) (*models.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raw volume: %w", err)
	}
	defer file.Close()

	r, closeFn, err := decompressor(path, file)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	g, err := ReadRaw(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Infof("loaded raw volume %s (%dx%dx%d, rgb=%v)", filepath.Base(path), g.Width, g.Height, g.Depth, g.IsRGB())
	return g, nil
}

// ReadRaw reads an uncompressed dump from r.
func ReadRaw(r io.Reader, format RawFormat) (*models.Grid, error) {
	channels := 1
	if format.RGB {
		channels = 4
	}
	g, err := models.NewGrid(format.Width, format.Height, format.Depth, channels)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrDimensions)
	}
	if format.Spacing.X > 0 {
		g.Spacing = format.Spacing
	}

	bpv := format.bytesPerVoxel()
	row := make([]byte, format.Width*bpv)
	br := bufio.NewReader(r)
	for z := 0; z < format.Depth; z++ {
		for y := 0; y < format.Height; y++ {
			if _, err := io.ReadFull(br, row); err != nil {
				return nil, fmt.Errorf("reading row %d of slice %d: %w", y, z, err)
			}
			for x := 0; x < format.Width; x++ {
				if !format.RGB {
					g.Set(models.Lum, x, y, z, row[x])
					continue
				}
				rr, gg, bb := row[3*x], row[3*x+1], row[3*x+2]
				g.Set(models.Red, x, y, z, rr)
				g.Set(models.Green, x, y, z, gg)
				g.Set(models.Blue, x, y, z, bb)
				g.Set(models.Lum, x, y, z, Luminance(rr, gg, bb))
			}
		}
	}

	g.PadBorders()
	return g, nil
}

// SaveRaw writes the interior of g as a raw dump, compressed by extension.
func SaveRaw(path string, g *models.Grid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating raw volume: %w", err)
	}
	defer file.Close()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		w = enc
	case ".gz":
		w = gzip.NewWriter(file)
	default:
		w = nopWriteCloser{file}
	}

	if err := WriteRaw(w, g); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing raw volume: %w", err)
	}
	return nil
}

// WriteRaw writes the interior of g uncompressed.
func WriteRaw(w io.Writer, g *models.Grid) error {
	bpv := 1
	if g.IsRGB() {
		bpv = 3
	}
	row := make([]byte, g.Width*bpv)
	bw := bufio.NewWriter(w)
	for z := 0; z < g.Depth; z++ {
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				if g.IsRGB() {
					row[3*x] = g.At(models.Red, x, y, z)
					row[3*x+1] = g.At(models.Green, x, y, z)
					row[3*x+2] = g.At(models.Blue, x, y, z)
				} else {
					row[x] = g.At(models.Lum, x, y, z)
				}
			}
			if _, err := bw.Write(row); err != nil {
				return fmt.Errorf("writing raw volume: %w", err)
			}
		}
	}
	return bw.Flush()
}

func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return dec, dec.Close, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	}
	return r, func() {}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
