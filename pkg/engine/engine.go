// Package engine owns the interactive parameters of a volume view and turns
// every parameter change into a render job for the progressive scheduler.
package engine

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"volraycast/internal/models"
	"volraycast/pkg/config"
	"volraycast/pkg/cube"
	"volraycast/pkg/gradient"
	"volraycast/pkg/log"
	"volraycast/pkg/render"
	"volraycast/pkg/transfer"
	"volraycast/pkg/transform"
	"volraycast/pkg/volume"
)

var logger = log.New("engine")

// Listener receives the output of the scheduler.
type Listener interface {
	// OnLevel is called with every completed refinement level
	OnLevel(frame *render.Frame, stats render.LevelStats)

	// OnStatus is called when rendering starts or stops
	OnStatus(busy bool)
}

// Status is a snapshot of the view parameters.
type Status struct {
	Angles        [3]float64 `json:"angles"`
	Scale         float64    `json:"scale"`
	ZAspect       float64    `json:"zAspect"`
	Mode          string     `json:"mode"`
	Interpolation string     `json:"interpolation"`
	Sampling      float64    `json:"sampling"`
	Clip          float64    `json:"clip"`
	Transfer      string     `json:"transfer"`
	Palette       string     `json:"palette"`
	Light         bool       `json:"light"`
	Busy          bool       `json:"busy"`
}

// Engine holds the camera, light, classification and render settings of
// one volume. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	grid *models.Grid
	feat *models.Features
	hist *models.Histograms

	tr    *transform.Transform
	light *transform.Light
	cube  *cube.Cube
	clf   *transfer.Classifier
	est   *gradient.Estimator
	sched *render.Scheduler

	params     render.Params
	workers    int
	lumTol     int
	gradTol    int
	paintAlpha uint8
}

// New analyses grid and builds an engine configured by cfg. l may be nil.
func New(grid *models.Grid, cfg *config.Config, l Listener) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := paramsFrom(cfg)
	if err != nil {
		return nil, err
	}
	tmode, err := transfer.ParseMode(cfg.Transfer.Mode)
	if err != nil {
		return nil, err
	}

	workers := cfg.Render.Threads
	feat, hist := volume.Analyze(grid, workers)

	w, h := cfg.Render.Width, cfg.Render.Height
	tr := transform.New(grid.Width, grid.Height, grid.Depth, w, h)
	zAspect := cfg.Render.ZAspect
	if zAspect == 0 {
		zAspect = grid.Spacing.ZAspect()
	}
	tr.SetZAspect(zAspect)
	tr.SetScale(cfg.Render.Scale)
	tr.SetView(cfg.Render.AngleX, cfg.Render.AngleY, cfg.Render.AngleZ)

	clf := transfer.NewClassifier(grid, feat)
	if err := clf.SetPalette(cfg.Transfer.Palette); err != nil {
		return nil, err
	}
	if cfg.Transfer.Auto {
		clf.Auto(hist)
	}
	clf.SetMode(tmode)

	e := &Engine{
		grid:       grid,
		feat:       feat,
		hist:       hist,
		tr:         tr,
		light:      transform.NewLight(mgl64.Vec3{0, 0, -1}, w, h),
		cube:       cube.New(grid.Width, grid.Height, grid.Depth),
		clf:        clf,
		est:        gradient.New(grid, feat, workers),
		params:     params,
		workers:    workers,
		lumTol:     cfg.Transfer.LumTolerance,
		gradTol:    cfg.Transfer.GradTolerance,
		paintAlpha: uint8(cfg.Transfer.PaintAlpha),
	}

	sc := render.SchedulerConfig{Workers: workers}
	if l != nil {
		sc.OnLevel = l.OnLevel
		sc.OnStatus = l.OnStatus
	}
	e.sched = render.NewScheduler(sc)

	logger.Infof("engine ready: %dx%dx%d volume, %dx%d view, %d workers",
		grid.Width, grid.Height, grid.Depth, w, h, workers)
	return e, nil
}

func paramsFrom(cfg *config.Config) (render.Params, error) {
	mode, err := render.ParseMode(cfg.Render.Mode)
	if err != nil {
		return render.Params{}, err
	}
	interp, err := render.ParseInterpolation(cfg.Render.Interpolation)
	if err != nil {
		return render.Params{}, err
	}
	return render.Params{
		Mode:          mode,
		Interpolation: interp,
		Sampling:      cfg.Render.Sampling,
		Clip:          cfg.Render.Clip,
		Background:    rgb(cfg.Render.Background),
		Light: render.Lighting{
			Enabled:  cfg.Light.Enabled,
			Ambient:  cfg.Light.Ambient,
			Diffuse:  cfg.Light.Diffuse,
			Specular: cfg.Light.Specular,
			Shine:    cfg.Light.Shine,
			Object:   cfg.Light.Object,
			Color:    rgb(cfg.Light.Color),
		},
	}, nil
}

func rgb(c [3]int) uint32 { return transfer.RGB(uint8(c[0]), uint8(c[1]), uint8(c[2])) }

// Close stops the scheduler.
func (e *Engine) Close() { e.sched.Close() }

// Grid returns the volume.
func (e *Engine) Grid() *models.Grid { return e.grid }

// Features returns the derived voxel buffers.
func (e *Engine) Features() *models.Features { return e.feat }

// Histograms returns the histograms computed at load time.
func (e *Engine) Histograms() *models.Histograms { return e.hist }

// Status returns the current parameters.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Angles:        e.tr.Angles(),
		Scale:         e.tr.Scale(),
		ZAspect:       e.tr.ZAspect(),
		Mode:          e.params.Mode.String(),
		Interpolation: e.params.Interpolation.String(),
		Sampling:      e.params.Sampling,
		Clip:          e.params.Clip,
		Transfer:      e.clf.Mode().String(),
		Palette:       e.clf.PaletteName(),
		Light:         e.params.Light.Enabled,
		Busy:          e.sched.State() != render.Idle,
	}
}

// jobLocked snapshots the parameters into a render job.
func (e *Engine) jobLocked() *render.Job {
	snap := e.clf.Snapshot()
	params := e.params
	params.Light.Direction = e.light.Direction()
	pose := e.tr.Pose()
	e.cube.Transform(pose)

	lighting := params.Light.Enabled && params.Mode == render.Volume
	est := e.est
	return &render.Job{
		Grid:     e.grid,
		Features: e.feat,
		Pose:     pose,
		Cube:     *e.cube,
		Transfer: snap,
		Params:   params,
		Prepare: func() {
			if est.Refresh(snap, lighting) {
				logger.Debugf("normals refreshed for transfer version %d", snap.Version)
			}
		},
	}
}

// update applies fn under the lock and schedules the resulting job.
func (e *Engine) update(fn func() error) error {
	e.mu.Lock()
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	job := e.jobLocked()
	e.mu.Unlock()
	return e.sched.Submit(job)
}

// Refresh schedules a render of the current parameters.
func (e *Engine) Refresh() error {
	return e.update(func() error { return nil })
}

// RenderSync renders the final level of the current parameters and
// returns it. A progressive render in flight is interrupted.
func (e *Engine) RenderSync() (*render.Frame, render.LevelStats, error) {
	e.mu.Lock()
	job := e.jobLocked()
	e.mu.Unlock()

	var (
		frame *render.Frame
		stats render.LevelStats
	)
	err := e.sched.Exclusive(func() {
		frame, stats = render.Render(job, e.workers)
	})
	if err != nil {
		return nil, stats, err
	}
	return frame, stats, nil
}

// validateSampling rejects non-positive sampling factors.
func validateSampling(s float64) error {
	if s <= 0 {
		return fmt.Errorf("sampling must be positive, got %f", s)
	}
	return nil
}
