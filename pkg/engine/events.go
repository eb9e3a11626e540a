package engine

import (
	"fmt"

	"volraycast/pkg/render"
	"volraycast/pkg/transfer"
)

// Rotate applies a trackball drag from (xStart, yStart) to (xAct, yAct).
func (e *Engine) Rotate(xAct, yAct, xStart, yStart int) error {
	return e.update(func() error {
		w, _ := e.viewport()
		e.tr.SetMouseMovement(xAct, yAct, xStart, yStart, w)
		return nil
	})
}

// RotateLight drags the light direction with its own trackball.
func (e *Engine) RotateLight(xAct, yAct, xStart, yStart int) error {
	return e.update(func() error {
		w, _ := e.viewport()
		e.light.SetMouseMovement(xAct, yAct, xStart, yStart, w)
		return nil
	})
}

// SetView replaces the rotation with Euler angles in degrees.
func (e *Engine) SetView(degX, degY, degZ float64) error {
	return e.update(func() error {
		e.tr.SetView(degX, degY, degZ)
		return nil
	})
}

// Pan moves the view by a screen delta.
func (e *Engine) Pan(dx, dy int) error {
	return e.update(func() error {
		e.tr.SetMouseMovementOffset(dx, dy)
		return nil
	})
}

// SetScale changes the zoom factor.
func (e *Engine) SetScale(scale float64) error {
	return e.update(func() error {
		if scale <= 0 {
			return fmt.Errorf("scale must be positive, got %f", scale)
		}
		e.tr.SetScale(scale)
		return nil
	})
}

// SetZAspect changes the z stretch.
func (e *Engine) SetZAspect(aspect float64) error {
	return e.update(func() error {
		e.tr.SetZAspect(aspect)
		return nil
	})
}

// SetScreenSize resizes the viewport.
func (e *Engine) SetScreenSize(w, h int) error {
	return e.update(func() error {
		if w <= 0 || h <= 0 {
			return fmt.Errorf("invalid viewport %dx%d", w, h)
		}
		e.tr.SetScreenSize(w, h)
		return nil
	})
}

// SetRenderMode selects the projection mode.
func (e *Engine) SetRenderMode(m render.Mode) error {
	return e.update(func() error {
		e.params.Mode = m
		return nil
	})
}

// SetInterpolation selects nearest or trilinear sampling.
func (e *Engine) SetInterpolation(i render.Interpolation) error {
	return e.update(func() error {
		e.params.Interpolation = i
		return nil
	})
}

// SetSampling sets the number of samples per voxel.
func (e *Engine) SetSampling(s float64) error {
	return e.update(func() error {
		if err := validateSampling(s); err != nil {
			return err
		}
		e.params.Sampling = s
		return nil
	})
}

// SetClipDistance moves the clip plane; d is clamped to [0, 1].
func (e *Engine) SetClipDistance(d float64) error {
	return e.update(func() error {
		if d < 0 {
			d = 0
		} else if d > 1 {
			d = 1
		}
		e.params.Clip = d
		return nil
	})
}

// SetBackground sets the 0xRRGGBB background.
func (e *Engine) SetBackground(c uint32) error {
	return e.update(func() error {
		e.params.Background = c & 0xffffff
		return nil
	})
}

// SetLight replaces the lighting coefficients. The direction stays under
// control of RotateLight.
func (e *Engine) SetLight(l render.Lighting) error {
	return e.update(func() error {
		e.params.Light = l
		return nil
	})
}

// SetActiveTransfer switches the classification model.
func (e *Engine) SetActiveTransfer(m transfer.Mode) error {
	return e.update(func() error {
		e.clf.SetMode(m)
		return nil
	})
}

// SetPalette selects a built-in palette.
func (e *Engine) SetPalette(name string) error {
	return e.update(func() error { return e.clf.SetPalette(name) })
}

// SetTolerances sets the region paint tolerances.
func (e *Engine) SetTolerances(lum, grad int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lumTol, e.gradTol = lum, grad
}

// SetPaintAlpha sets the opacity used by paint operations.
func (e *Engine) SetPaintAlpha(a uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paintAlpha = a
}

// StrokeLuminance draws on the luminance curve. x is the luminance bin
// and y the opacity.
func (e *Engine) StrokeLuminance(x0, y0, x1, y1 int, erase bool) error {
	return e.update(func() error {
		e.clf.Luminance.Stroke(x0, y0, x1, y1, erase)
		e.clf.Touch()
		return nil
	})
}

// PaintLumGrad brushes the luminance / gradient surface at (lum, grad)
// with the paint alpha and the palette colour of lum.
func (e *Engine) PaintLumGrad(lum, grad int, erase bool) error {
	return e.update(func() error {
		if err := surfaceBounds(lum, grad); err != nil {
			return err
		}
		e.clf.LumGrad.Paint(lum, grad, e.paintAlpha, erase, e.clf.Palette()[lum])
		e.clf.Touch()
		return nil
	})
}

// PaintMeanDiff brushes the mean / difference surface at (mean, diff).
func (e *Engine) PaintMeanDiff(mean, diff int, erase bool) error {
	return e.update(func() error {
		if err := surfaceBounds(mean, diff); err != nil {
			return err
		}
		e.clf.MeanDiff.Paint(mean, diff, e.paintAlpha, erase, e.clf.Palette()[mean])
		e.clf.Touch()
		return nil
	})
}

func surfaceBounds(x, y int) error {
	if x < 0 || x >= transfer.SurfaceWidth || y < 0 || y >= transfer.SurfaceHeight {
		return fmt.Errorf("surface position (%d, %d) out of range", x, y)
	}
	return nil
}

// SetOffset shifts the opacity of the active model.
func (e *Engine) SetOffset(offset int) error {
	return e.update(func() error {
		e.clf.SetOffset(offset)
		return nil
	})
}

// ScaleAlpha folds the offset of the active model into its values.
func (e *Engine) ScaleAlpha() error {
	return e.update(func() error {
		e.clf.ScaleAlpha()
		return nil
	})
}

// ClearAlpha resets the active model. Region paint is cleared while no
// level is in flight.
func (e *Engine) ClearAlpha() error {
	return e.exclusive(func() error {
		e.clf.ClearAlpha()
		return nil
	})
}

// AutoTransfer derives all models from the histograms again.
func (e *Engine) AutoTransfer() error {
	return e.update(func() error {
		e.clf.Auto(e.hist)
		return nil
	})
}

// PaintRegion flood fills from voxel (x, y, z) with the paint alpha and a
// colour index. The fill runs while no level is in flight.
func (e *Engine) PaintRegion(x, y, z int, colorIndex uint8) (transfer.FillResult, error) {
	var res transfer.FillResult
	err := e.exclusive(func() error {
		var err error
		res, err = e.clf.Paint.FindAndSetSimilar(x, y, z, e.paintAlpha, colorIndex, e.lumTol, e.gradTol)
		return err
	})
	return res, err
}

// ColorByProximity recolours painted voxels by their nearest seed.
func (e *Engine) ColorByProximity() (int, error) {
	var n int
	err := e.exclusive(func() error {
		n = e.clf.Paint.ColorByProximity()
		return nil
	})
	return n, err
}

// exclusive mutates shared voxel buffers on the scheduler goroutine and
// schedules a render afterwards.
func (e *Engine) exclusive(fn func() error) error {
	var ferr error
	err := e.sched.Exclusive(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ferr = fn(); ferr == nil {
			e.clf.Touch()
		}
	})
	if err != nil {
		return err
	}
	if ferr != nil {
		return ferr
	}
	return e.Refresh()
}

func (e *Engine) viewport() (int, int) {
	p := e.tr.Pose()
	return p.ScreenWidth, p.ScreenHeight
}
