package gifn

import "fmt"

// PalettePolicy defines how a palette index beyond the effective color table is handled.
type PalettePolicy int

const (
	// PaletteFail fails the decode with ErrPaletteIndex.
	PaletteFail PalettePolicy = iota
	// PaletteClamp substitutes the last entry of the color table.
	PaletteClamp
	// PaletteBackground substitutes the entry at the screen background index.
	PaletteBackground
)

// resolver maps raster indices of one frame to colors.
type resolver struct {
	table      ColorTable
	local      bool
	policy     PalettePolicy
	background uint8
}

// newResolver selects the frame's local color table when it has one, the global table otherwise.
func newResolver(f *Frame, s Screen, policy PalettePolicy) resolver {
	r := resolver{table: s.ColorMap, policy: policy, background: s.BackgroundIndex}
	if f.ColorMap != nil {
		r.table = f.ColorMap
		r.local = true
	}

	return r
}

func (r *resolver) resolve(idx uint8) (RGB, error) {
	if int(idx) < len(r.table) {
		return r.table[idx], nil
	}

	switch r.policy {
	case PaletteClamp:
		if len(r.table) > 0 {
			return r.table[len(r.table)-1], nil
		}
	case PaletteBackground:
		if int(r.background) < len(r.table) {
			return r.table[r.background], nil
		}
	}

	return RGB{}, &CodecError{
		Code: CodeImageDefect,
		Msg:  fmt.Sprintf("palette index %d outside color table of %d entries", idx, len(r.table)),
	}
}
