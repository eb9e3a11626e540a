package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"volraycast/internal/models"
	"volraycast/pkg/volume"
)

// loadVolume reads the volume named by the first argument: a directory of
// slice images or a raw dump sized by --dims.
func loadVolume(ctx *cli.Context) (*models.Grid, error) {
	path := ctx.Args().First()
	if path == "" {
		return nil, fmt.Errorf("missing volume argument")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	gap := ctx.Float64("gap")

	if info.IsDir() {
		return volume.LoadSliceDir(path, gap)
	}

	format, err := parseDims(ctx.String("dims"))
	if err != nil {
		return nil, err
	}
	format.RGB = ctx.Bool("rgb")
	format.Spacing = models.Spacing{X: 1, Y: 1, Z: gap}
	return volume.LoadRaw(path, format)
}

func parseDims(s string) (volume.RawFormat, error) {
	var f volume.RawFormat
	if s == "" {
		return f, fmt.Errorf("raw volumes need --dims WxHxD")
	}
	if _, err := fmt.Sscanf(s, "%dx%dx%d", &f.Width, &f.Height, &f.Depth); err != nil {
		return f, fmt.Errorf("parsing --dims %q: %w", s, err)
	}
	if f.Width <= 0 || f.Height <= 0 || f.Depth <= 0 {
		return f, fmt.Errorf("%w: %s", volume.ErrDimensions, s)
	}
	return f, nil
}
