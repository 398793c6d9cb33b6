//go:build !nogif

package gifn

import (
	"bytes"
	"compress/lzw"
	"math/bits"
)

// testFrame describes one image of a generated GIF.
type testFrame struct {
	w, h       int
	local      ColorTable // nil writes no local color table
	interlaced bool
	litWidth   int    // LZW minimum code size, derived from the tables when 0
	pix        []byte // row-major palette indices
}

// testGIF describes a GIF stream built by bytes.
type testGIF struct {
	version   string // "89a" when empty
	w, h      int
	global    ColorTable // nil writes no global color table
	bg        uint8
	depth     int // color resolution, 8 when 0
	frames    []testFrame
	ext       bool // write a graphic control and a comment extension before each frame
	noTrailer bool
}

// tableBits returns the packed size field for a table of n entries, n a power of two >= 2.
func tableBits(n int) byte {
	return byte(bits.Len(uint(n)) - 2)
}

func writeTable(buf *bytes.Buffer, t ColorTable) {
	for _, c := range t {
		buf.Write([]byte{c.R, c.G, c.B})
	}
}

func writeSubBlocks(buf *bytes.Buffer, data []byte) {
	for len(data) > 0 {
		n := min(len(data), 255)
		buf.WriteByte(byte(n))
		buf.Write(data[:n])
		data = data[n:]
	}

	buf.WriteByte(0)
}

func (g testGIF) bytes() []byte {
	var buf bytes.Buffer

	version := g.version
	if version == "" {
		version = "89a"
	}

	depth := g.depth
	if depth == 0 {
		depth = 8
	}

	buf.WriteString("GIF" + version)

	fields := byte(depth-1) << 4
	if g.global != nil {
		fields |= fColorTable | tableBits(len(g.global))
	}

	buf.Write([]byte{byte(g.w), byte(g.w >> 8), byte(g.h), byte(g.h >> 8), fields, g.bg, 0})
	writeTable(&buf, g.global)

	for _, f := range g.frames {
		if g.ext {
			buf.Write([]byte{sExtension, 0xF9, 4, 0, 10, 0, 0, 0})
			buf.Write([]byte{sExtension, 0xFE})
			writeSubBlocks(&buf, []byte("generated"))
		}

		buf.WriteByte(sImageDescriptor)

		var ifields byte
		if f.local != nil {
			ifields |= fColorTable | tableBits(len(f.local))
		}

		if f.interlaced {
			ifields |= fInterlace
		}

		buf.Write([]byte{0, 0, 0, 0, byte(f.w), byte(f.w >> 8), byte(f.h), byte(f.h >> 8), ifields})
		writeTable(&buf, f.local)

		litWidth := f.litWidth
		if litWidth == 0 {
			n := max(len(f.local), len(g.global), 4)
			litWidth = bits.Len(uint(n - 1))
		}

		buf.WriteByte(byte(litWidth))

		pix := f.pix
		if f.interlaced {
			pix = interlace(f.pix, f.w, f.h)
		}

		var data bytes.Buffer
		lw := lzw.NewWriter(&data, lzw.LSB, litWidth)
		_, _ = lw.Write(pix)
		_ = lw.Close()

		writeSubBlocks(&buf, data.Bytes())
	}

	if !g.noTrailer {
		buf.WriteByte(sTrailer)
	}

	return buf.Bytes()
}

// interlace reorders rows into GIF interlaced transmission order.
func interlace(pix []byte, w, h int) []byte {
	out := make([]byte, 0, len(pix))
	for _, pass := range interlacing {
		for y := pass.start; y < h; y += pass.step {
			out = append(out, pix[y*w:(y+1)*w]...)
		}
	}

	return out
}

var (
	testGlobal = ColorTable{
		{0x00, 0x00, 0x00},
		{0xff, 0x00, 0x00},
		{0x00, 0xff, 0x00},
		{0x00, 0x00, 0xff},
	}
	testLocal = ColorTable{
		{0x10, 0x20, 0x30},
		{0x40, 0x50, 0x60},
		{0x70, 0x80, 0x90},
		{0xa0, 0xb0, 0xc0},
	}
)

// patternPix returns a w x h raster cycling through n indices.
func patternPix(w, h, n int) []byte {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = byte((i*7 + i/w) % n)
	}

	return pix
}

// singleFrame builds a w x h image using the global test table.
func singleFrame(w, h int) testGIF {
	return testGIF{
		w:      w,
		h:      h,
		global: testGlobal,
		frames: []testFrame{{w: w, h: h, pix: patternPix(w, h, len(testGlobal))}},
	}
}
