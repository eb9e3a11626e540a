package main

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"gonum.org/v1/gonum/stat"

	"volraycast/internal/models"
	"volraycast/pkg/config"
	"volraycast/pkg/engine"
	"volraycast/pkg/render"
	"volraycast/pkg/server"
	"volraycast/pkg/visualization"
	"volraycast/pkg/volume"
)

// levelCollector records the levels of one progressive render.
type levelCollector struct {
	levels []render.LevelStats
	final  chan *render.Frame
}

func (c *levelCollector) OnLevel(f *render.Frame, st render.LevelStats) {
	c.levels = append(c.levels, st)
	if st.Level.Final {
		c.final <- f
	}
}

func (c *levelCollector) OnStatus(bool) {}

// Render a still frame.
func renderFrame(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if m := ctx.String("mode"); m != "" {
		cfg.Render.Mode = m
	}
	if t := ctx.String("transfer"); t != "" {
		cfg.Transfer.Mode = t
	}
	if ctx.Bool("light") {
		cfg.Light.Enabled = true
	}

	grid, err := loadVolume(ctx)
	if err != nil {
		return err
	}

	collector := &levelCollector{final: make(chan *render.Frame, 1)}
	eng, err := engine.New(grid, cfg, collector)
	if err != nil {
		return err
	}
	defer eng.Close()

	var frame *render.Frame
	var levels []render.LevelStats
	if ctx.Bool("progressive") {
		if err := eng.Refresh(); err != nil {
			return err
		}
		frame = <-collector.final
		levels = collector.levels
	} else {
		f, st, err := eng.RenderSync()
		if err != nil {
			return err
		}
		frame, levels = f, []render.LevelStats{st}
	}

	out := ctx.String("out")
	if err := writePNG(out, frame); err != nil {
		return err
	}
	logger.Noticef("wrote %s", out)
	displayLevelStats(levels)
	return nil
}

func writePNG(path string, frame *render.Frame) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := png.Encode(file, frame.Image()); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

func displayLevelStats(levels []render.LevelStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Sub", "Sampling", "Interpolation", "Rays", "Samples", "Stripe mean", "Stripe stddev", "Render time"})

	var total time.Duration
	for _, st := range levels {
		mean, sd := stripeStats(st.Stripes)
		table.Append([]string{
			fmt.Sprintf("%d", st.Level.Sub),
			fmt.Sprintf("%.2f", st.Level.Sampling),
			st.Level.Interpolation.String(),
			fmt.Sprintf("%d", st.Rays),
			fmt.Sprintf("%d", st.Samples),
			mean.String(),
			sd.String(),
			st.Duration.String(),
		})
		total += st.Duration
	}
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", total.String()})

	table.Render()
	logger.Noticef("level statistics\n%s", buf.String())
}

// stripeStats returns the mean and standard deviation of stripe times.
func stripeStats(stripes []time.Duration) (time.Duration, time.Duration) {
	if len(stripes) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(stripes))
	for i, d := range stripes {
		xs[i] = float64(d)
	}
	mean := stat.Mean(xs, nil)
	if len(xs) < 2 {
		return time.Duration(mean), 0
	}
	return time.Duration(mean), time.Duration(stat.StdDev(xs, nil))
}

// Export slice sequences.
func exportSlices(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	grid, err := loadVolume(ctx)
	if err != nil {
		return err
	}

	out := ctx.String("out")
	if out == "" {
		out = cfg.Output.Directory
	}
	axes := []string{ctx.String("axis")}
	if axes[0] == "all" {
		axes = []string{"x", "y", "z"}
	}

	viewer := visualization.NewViewer(grid, nil)
	for _, axis := range axes {
		dir := filepath.Join(out, axis)
		if err := viewer.SaveSliceSequence(axis, dir); err != nil {
			return err
		}
		logger.Noticef("saved %s slices to %s", axis, dir)
	}
	return nil
}

// Run the preview server until interrupted.
func serve(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	grid, err := loadVolume(ctx)
	if err != nil {
		return err
	}
	addr := ctx.String("addr")
	if addr == "" {
		addr = cfg.Server.Address
	}

	srv := server.New(addr)
	eng, err := engine.New(grid, cfg, srv)
	if err != nil {
		return err
	}
	defer eng.Close()
	srv.Attach(eng)
	if err := eng.Refresh(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warningf("shutdown: %v", err)
		}
	}()
	return srv.ListenAndServe()
}

// Write a synthetic volume.
func writePhantom(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}
	out := ctx.Args().First()
	if out == "" {
		return fmt.Errorf("missing output file")
	}
	n := ctx.Int("size")

	var (
		g   *models.Grid
		err error
	)
	switch kind := ctx.String("kind"); kind {
	case "sphere":
		g, err = volume.Sphere(n, float64(n)*0.4)
	case "ramp":
		g, err = volume.Ramp(n, n, n)
	default:
		return fmt.Errorf("unknown phantom kind %q", kind)
	}
	if err != nil {
		return err
	}
	if err := volume.SaveRaw(out, g); err != nil {
		return err
	}
	logger.Noticef("wrote %dx%dx%d phantom to %s", n, n, n, out)
	return nil
}

// Write the default configuration.
func initConfig(ctx *cli.Context) error {
	setupLogging(ctx, nil)
	path := ctx.GlobalString("config")
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	logger.Noticef("wrote default configuration to %s", path)
	return nil
}
