package gifn

import (
	"image/color"
	"io"
)

// RGB is a single color table entry.
type RGB struct {
	R, G, B uint8
}

// ColorTable is an ordered list of colors indexed by palette index.
type ColorTable []RGB

// Palette converts the table to an opaque color.Palette.
func (t ColorTable) Palette() color.Palette {
	p := make(color.Palette, len(t))
	for i, c := range t {
		p[i] = color.RGBA{c.R, c.G, c.B, 0xff}
	}

	return p
}

// Screen describes the logical screen of a GIF stream.
type Screen struct {
	Width, Height   int
	ColorResolution int        // Bits per primary color, 1-8.
	BackgroundIndex uint8      // Index into the global color table.
	ColorMap        ColorTable // Global color table, nil if absent.
}

// Frame is a decoded image of a GIF stream.
// It is owned by the Handle that produced it and is only valid until Close.
type Frame struct {
	Left, Top     int
	Width, Height int
	Interlaced    bool
	ColorMap      ColorTable // Local color table, nil if absent.
	Raster        []byte     // One palette index per pixel, row-major, deinterlaced.
}

// Engine is the codec capability driven by the decoder.
// An Engine serves a single decode call and must not be shared between goroutines.
type Engine interface {
	// Open reads the stream header from src and returns a handle for it.
	// src must stay readable until the handle is closed.
	Open(src io.Reader) (Handle, error)
	// LastError returns the native code of the most recent failed operation, or CodeNone.
	LastError() int
}

// Handle is an open codec stream.
type Handle interface {
	// Slurp decodes all remaining records of the stream.
	Slurp() error
	Screen() Screen
	FrameCount() int
	// FrameAt returns the i-th decoded frame, or nil when out of range.
	FrameAt(i int) *Frame
	// Close releases all resources held by the handle.
	Close() error
}
