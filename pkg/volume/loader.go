// Package volume loads voxel grids from image stacks and raw dumps and
// derives the feature buffers and histograms the renderer reads.
package volume

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"volraycast/internal/models"
	"volraycast/pkg/log"
)

var logger = log.New("volume")

var (
	// ErrNoSlices is returned when a directory holds no slice images.
	ErrNoSlices = errors.New("no slice images found")

	// ErrDimensions is returned for inconsistent or invalid sizes.
	ErrDimensions = errors.New("invalid volume dimensions")
)

// LoadSliceDir reads every .jpg, .jpeg and .png file of dir, ordered by the
// number embedded in the filename, into a grid. sliceGap is the z spacing
// relative to the in-plane pixel size.
func LoadSliceDir(dir string, sliceGap float64) (*models.Grid, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading slice directory: %w", err)
	}

	var imageFiles []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
			imageFiles = append(imageFiles, file.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSlices)
	}

	sort.SliceStable(imageFiles, func(i, j int) bool {
		return extractNumber(imageFiles[i]) < extractNumber(imageFiles[j])
	})

	slices := make([]models.Slice, 0, len(imageFiles))
	for i, filename := range imageFiles {
		img, err := loadImage(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: filename})
	}

	g, err := FromSlices(slices)
	if err != nil {
		return nil, err
	}
	if sliceGap > 0 {
		g.Spacing.Z = sliceGap
	}

	logger.Infof("loaded %d slices with dimensions %dx%d (rgb=%v)", g.Depth, g.Width, g.Height, g.IsRGB())
	return g, nil
}

// FromSlices packs decoded slices into a padded grid. A colour grid is
// built when any slice carries chroma.
func FromSlices(slices []models.Slice) (*models.Grid, error) {
	if len(slices) == 0 {
		return nil, ErrNoSlices
	}

	bounds := slices[0].Image.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgb := false
	for _, s := range slices {
		b := s.Image.Bounds()
		if b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d: %w", s.Filename, b.Dx(), b.Dy(), w, h, ErrDimensions)
		}
		if !rgb && hasChroma(s.Image) {
			rgb = true
		}
	}

	channels := 1
	if rgb {
		channels = 4
	}
	g, err := models.NewGrid(w, h, len(slices), channels)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrDimensions)
	}

	for z, s := range slices {
		img := s.Image
		b := img.Bounds()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, gg, bb := rgb8(img.At(b.Min.X+x, b.Min.Y+y))
				if rgb {
					g.Set(models.Red, x, y, z, r)
					g.Set(models.Green, x, y, z, gg)
					g.Set(models.Blue, x, y, z, bb)
					g.Set(models.Lum, x, y, z, Luminance(r, gg, bb))
				} else {
					g.Set(models.Lum, x, y, z, r)
				}
			}
		}
	}

	g.PadBorders()
	return g, nil
}

// Luminance weights green twice.
func Luminance(r, g, b uint8) uint8 {
	return uint8((int(r) + 2*int(g) + int(b)) >> 2)
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func hasChroma(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return false
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb := rgb8(img.At(x, y))
			if r != g || g != bb {
				return true
			}
		}
	}
	return false
}
