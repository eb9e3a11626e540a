package server

import (
	"errors"
	"fmt"

	"volraycast/pkg/engine"
	"volraycast/pkg/render"
	"volraycast/pkg/transfer"
)

// Event is a parameter change sent by a client. Type selects the
// operation; the other fields are read as that operation needs them.
type Event struct {
	Type string `json:"type"`

	// X, Y are the current pointer position, X0, Y0 the drag start
	X  int `json:"x"`
	Y  int `json:"y"`
	Z  int `json:"z"`
	X0 int `json:"x0"`
	Y0 int `json:"y0"`

	Value float64    `json:"value"`
	Angle [3]float64 `json:"angle"`
	Name  string     `json:"name"`
	Erase bool       `json:"erase"`
	Color int        `json:"color"`
	RGB   [3]int     `json:"rgb"`

	// Lum and Grad are region paint tolerances
	Lum  int `json:"lum"`
	Grad int `json:"grad"`

	Light *LightEvent `json:"light,omitempty"`
}

// LightEvent carries the lighting coefficients.
type LightEvent struct {
	Enabled  bool    `json:"enabled"`
	Ambient  float64 `json:"ambient"`
	Diffuse  float64 `json:"diffuse"`
	Specular float64 `json:"specular"`
	Shine    float64 `json:"shine"`
	Object   float64 `json:"object"`
	Color    [3]int  `json:"color"`
}

// RegionMessage answers a paintRegion event.
type RegionMessage struct {
	Type  string `json:"type"`
	Size  int    `json:"size"`
	Small bool   `json:"small"`
}

// ProximityMessage answers a colorByProximity event.
type ProximityMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// StatusReply answers a status event.
type StatusReply struct {
	Type string `json:"type"`
	engine.Status
}

var errNoEngine = errors.New("no engine attached")

// apply forwards ev to the engine. The returned value, if any, is sent
// back to the client.
func (s *Server) apply(ev Event) (interface{}, error) {
	e := s.eng
	if e == nil {
		return nil, errNoEngine
	}

	switch ev.Type {
	case "rotate":
		return nil, e.Rotate(ev.X, ev.Y, ev.X0, ev.Y0)
	case "rotateLight":
		return nil, e.RotateLight(ev.X, ev.Y, ev.X0, ev.Y0)
	case "view":
		return nil, e.SetView(ev.Angle[0], ev.Angle[1], ev.Angle[2])
	case "pan":
		return nil, e.Pan(ev.X, ev.Y)
	case "scale":
		return nil, e.SetScale(ev.Value)
	case "zAspect":
		return nil, e.SetZAspect(ev.Value)
	case "sampling":
		return nil, e.SetSampling(ev.Value)
	case "clip":
		return nil, e.SetClipDistance(ev.Value)
	case "mode":
		m, err := render.ParseMode(ev.Name)
		if err != nil {
			return nil, err
		}
		return nil, e.SetRenderMode(m)
	case "interpolation":
		i, err := render.ParseInterpolation(ev.Name)
		if err != nil {
			return nil, err
		}
		return nil, e.SetInterpolation(i)
	case "transfer":
		m, err := transfer.ParseMode(ev.Name)
		if err != nil {
			return nil, err
		}
		return nil, e.SetActiveTransfer(m)
	case "palette":
		return nil, e.SetPalette(ev.Name)
	case "strokeLuminance":
		return nil, e.StrokeLuminance(ev.X0, ev.Y0, ev.X, ev.Y, ev.Erase)
	case "paintLumGrad":
		return nil, e.PaintLumGrad(ev.X, ev.Y, ev.Erase)
	case "paintMeanDiff":
		return nil, e.PaintMeanDiff(ev.X, ev.Y, ev.Erase)
	case "paintRegion":
		res, err := e.PaintRegion(ev.X, ev.Y, ev.Z, uint8(ev.Color))
		if err != nil {
			return nil, err
		}
		return RegionMessage{Type: "region", Size: res.Size, Small: res.Small}, nil
	case "colorByProximity":
		n, err := e.ColorByProximity()
		if err != nil {
			return nil, err
		}
		return ProximityMessage{Type: "proximity", Count: n}, nil
	case "tolerances":
		e.SetTolerances(ev.Lum, ev.Grad)
		return nil, nil
	case "offset":
		return nil, e.SetOffset(int(ev.Value))
	case "scaleAlpha":
		return nil, e.ScaleAlpha()
	case "clearAlpha":
		return nil, e.ClearAlpha()
	case "autoTransfer":
		return nil, e.AutoTransfer()
	case "background":
		return nil, e.SetBackground(rgb(ev.RGB))
	case "light":
		if ev.Light == nil {
			return nil, fmt.Errorf("light event without coefficients")
		}
		l := ev.Light
		return nil, e.SetLight(render.Lighting{
			Enabled:  l.Enabled,
			Ambient:  l.Ambient,
			Diffuse:  l.Diffuse,
			Specular: l.Specular,
			Shine:    l.Shine,
			Object:   l.Object,
			Color:    rgb(l.Color),
		})
	case "refresh":
		return nil, e.Refresh()
	case "status":
		return StatusReply{Type: "params", Status: e.Status()}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", ev.Type)
}

func rgb(c [3]int) uint32 {
	ch := func(v int) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return transfer.RGB(ch(c[0]), ch(c[1]), ch(c[2]))
}
