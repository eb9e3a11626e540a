package transfer

import (
	"fmt"
	"math"
	"sort"
)

// Palette maps 256 indices to 0xRRGGBB colours.
type Palette [256]uint32

// RGB packs a colour.
func RGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Split unpacks a colour.
func Split(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

var palettes = map[string]func() Palette{
	"gray":     grayPalette,
	"fire":     firePalette,
	"spectrum": spectrumPalette,
	"thermal":  thermalPalette,
}

// LookupPalette returns a built-in palette by name.
func LookupPalette(name string) (Palette, error) {
	fn, ok := palettes[name]
	if !ok {
		return Palette{}, fmt.Errorf("unknown palette %q (available: %v)", name, PaletteNames())
	}
	return fn(), nil
}

// PaletteNames lists the built-in palettes.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func grayPalette() Palette {
	var p Palette
	for i := range p {
		p[i] = RGB(uint8(i), uint8(i), uint8(i))
	}
	return p
}

// fire control points, 32 per channel
var (
	fireR = []int{0, 0, 1, 25, 49, 73, 98, 122, 146, 162, 173, 184, 195, 207, 217, 229, 240, 252, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255}
	fireG = []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 14, 35, 57, 79, 101, 117, 133, 147, 161, 175, 190, 205, 219, 234, 248, 255, 255, 255, 255}
	fireB = []int{0, 61, 96, 130, 165, 192, 220, 227, 210, 181, 151, 122, 93, 64, 35, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 35, 98, 160, 223, 255, 255, 255}
)

func firePalette() Palette {
	return interpolated(fireR, fireG, fireB)
}

// thermal runs black, blue, magenta, red, yellow, white
var (
	thermalR = []int{0, 0, 160, 255, 255, 255}
	thermalG = []int{0, 0, 0, 0, 220, 255}
	thermalB = []int{0, 200, 200, 0, 0, 255}
)

func thermalPalette() Palette {
	return interpolated(thermalR, thermalG, thermalB)
}

func spectrumPalette() Palette {
	var p Palette
	for i := range p {
		r, g, b := hsbToRGB(float64(i)/255, 1, 1)
		p[i] = RGB(r, g, b)
	}
	return p
}

// interpolated spreads control points evenly over 256 entries.
func interpolated(r, g, b []int) Palette {
	var p Palette
	n := len(r)
	for i := range p {
		pos := float64(i) * float64(n-1) / 255
		k := int(pos)
		if k >= n-1 {
			k = n - 2
		}
		f := pos - float64(k)
		mix := func(c []int) uint8 {
			return clampByte(int(math.Round(float64(c[k])*(1-f) + float64(c[k+1])*f)))
		}
		p[i] = RGB(mix(r), mix(g), mix(b))
	}
	return p
}

func hsbToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 1) * 6
	sector := int(h)
	f := h - float64(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(math.Round(r * 255)), uint8(math.Round(g * 255)), uint8(math.Round(b * 255))
}
