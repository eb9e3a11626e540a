package transfer

// Opacity is an optional opacity: either unset or a value in [0, 255].
// Unset cells fall back to the histogram background in previews and are
// transparent when rendering. A set value of 0 is transparent as well but
// survives ScaleAlpha as a real value.
type Opacity struct {
	value uint8
	set   bool
}

// NoOpacity is the unset opacity.
var NoOpacity = Opacity{}

// OpacityOf returns a set opacity.
func OpacityOf(v uint8) Opacity { return Opacity{value: v, set: true} }

// Get returns the value and whether it is set.
func (o Opacity) Get() (uint8, bool) { return o.value, o.set }

// IsSet reports whether the opacity holds a value.
func (o Opacity) IsSet() bool { return o.set }

// Or returns the value, or def when unset.
func (o Opacity) Or(def uint8) uint8 {
	if !o.set {
		return def
	}
	return o.value
}

// Offset returns the opacity shifted by d and clamped. Unset stays unset.
func (o Opacity) Offset(d int) Opacity {
	if !o.set {
		return o
	}
	return OpacityOf(clampByte(int(o.value) + d))
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
