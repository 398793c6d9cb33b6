//go:build !nogif

package gifn

import (
	"bufio"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
)

// Record introducers.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Packed field masks, shared by the screen and image descriptors.
const (
	fColorTable      = 1 << 7
	fColorResolution = 7 << 4
	fInterlace       = 1 << 6
	fColorTableSize  = 7
)

// maxFramePixels bounds the raster allocated for a single frame.
const maxFramePixels = 1 << 26

// maxTotalPixels bounds the rasters held by one handle across all frames.
var maxTotalPixels = 1 << 27

// gifEngine is the built-in codec engine. It keeps the native code of its last failure.
type gifEngine struct {
	lastErr int
}

func newGifEngine() Engine {
	return &gifEngine{}
}

func (e *gifEngine) LastError() int {
	return e.lastErr
}

func (e *gifEngine) fail(code int, format string, args ...interface{}) error {
	e.lastErr = code

	return &CodecError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Open reads the header, the logical screen descriptor and the global color table.
func (e *gifEngine) Open(src io.Reader) (Handle, error) {
	e.lastErr = CodeNone
	if src == nil {
		return nil, e.fail(CodeOpenFailed, "no input source")
	}

	h := &gifHandle{e: e, r: bufio.NewReader(src)}
	if err := h.readHeader(); err != nil {
		return nil, err
	}

	return h, nil
}

// gifHandle holds the state of one open stream.
type gifHandle struct {
	e      *gifEngine
	r      *bufio.Reader
	screen Screen
	frames []*Frame
	pixels int // Sum of the raster sizes in frames.
	closed bool
	tmp    [768]byte // Large enough for a 256 entry color table.
}

func (h *gifHandle) readHeader() error {
	if _, err := io.ReadFull(h.r, h.tmp[:6]); err != nil {
		return h.e.fail(CodeReadFailed, "reading signature: %v", err)
	}

	if sig := string(h.tmp[:6]); sig != "GIF87a" && sig != "GIF89a" {
		return h.e.fail(CodeNotGIF, "unknown signature %q", sig)
	}

	if _, err := io.ReadFull(h.r, h.tmp[:7]); err != nil {
		return h.e.fail(CodeNoScreenDesc, "reading screen descriptor: %v", err)
	}

	fields := h.tmp[4]
	h.screen = Screen{
		Width:           int(h.tmp[0]) | int(h.tmp[1])<<8,
		Height:          int(h.tmp[2]) | int(h.tmp[3])<<8,
		ColorResolution: int(fields&fColorResolution)>>4 + 1,
		BackgroundIndex: h.tmp[5],
	}

	if fields&fColorTable != 0 {
		cm, err := h.readColorMap(fields & fColorTableSize)
		if err != nil {
			return err
		}

		h.screen.ColorMap = cm
	}

	return nil
}

// readColorMap reads a table of 2^(sizeBits+1) entries.
func (h *gifHandle) readColorMap(sizeBits byte) (ColorTable, error) {
	n := 1 << (sizeBits + 1)
	if _, err := io.ReadFull(h.r, h.tmp[:3*n]); err != nil {
		return nil, h.e.fail(CodeReadFailed, "short color map: %v", err)
	}

	cm := make(ColorTable, n)
	for i, j := 0, 0; i < n; i, j = i+1, j+3 {
		cm[i] = RGB{h.tmp[j], h.tmp[j+1], h.tmp[j+2]}
	}

	return cm, nil
}

// Slurp reads records until the trailer. A stream that ends right after a
// complete image without a trailer is accepted.
func (h *gifHandle) Slurp() error {
	if h.closed {
		return h.e.fail(CodeNotReadable, "handle is closed")
	}

	for {
		c, err := h.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(h.frames) > 0 {
				return nil
			}

			return h.e.fail(CodeEOFTooSoon, "reading record type: %v", err)
		}

		switch c {
		case sImageDescriptor:
			if err := h.readImage(); err != nil {
				return err
			}
		case sExtension:
			if err := h.skipExtension(); err != nil {
				return err
			}
		case sTrailer:
			return nil
		default:
			return h.e.fail(CodeWrongRecord, "unknown record type 0x%.2x", c)
		}
	}
}

func (h *gifHandle) readImage() error {
	if _, err := io.ReadFull(h.r, h.tmp[:9]); err != nil {
		return h.e.fail(CodeNoImageDesc, "reading image descriptor: %v", err)
	}

	fields := h.tmp[8]
	f := &Frame{
		Left:       int(h.tmp[0]) | int(h.tmp[1])<<8,
		Top:        int(h.tmp[2]) | int(h.tmp[3])<<8,
		Width:      int(h.tmp[4]) | int(h.tmp[5])<<8,
		Height:     int(h.tmp[6]) | int(h.tmp[7])<<8,
		Interlaced: fields&fInterlace != 0,
	}

	if fields&fColorTable != 0 {
		cm, err := h.readColorMap(fields & fColorTableSize)
		if err != nil {
			return err
		}

		f.ColorMap = cm
	}

	n := f.Width * f.Height
	if n > maxFramePixels {
		return h.e.fail(CodeDataTooBig, "frame %dx%d is too large", f.Width, f.Height)
	}

	if h.pixels+n > maxTotalPixels {
		return h.e.fail(CodeDataTooBig, "frames exceed %d pixels in total", maxTotalPixels)
	}

	litWidth, err := h.r.ReadByte()
	if err != nil {
		return h.e.fail(CodeEOFTooSoon, "reading LZW code size: %v", err)
	}

	if litWidth < 2 || litWidth > 8 {
		return h.e.fail(CodeImageDefect, "LZW code size %d out of range", litWidth)
	}

	f.Raster = make([]byte, n)
	br := &blockReader{r: h.r}
	lr := lzw.NewReader(br, lzw.LSB, int(litWidth))
	_, err = io.ReadFull(lr, f.Raster)
	lr.Close()

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h.e.fail(CodeEOFTooSoon, "not enough image data")
		}

		return h.e.fail(CodeImageDefect, "decompressing image data: %v", err)
	}

	// Skip whatever is left of the data sub-blocks, including the terminator.
	if _, err := io.Copy(io.Discard, br); err != nil {
		return h.e.fail(CodeReadFailed, "reading image data: %v", err)
	}

	if f.Interlaced {
		uninterlace(f.Raster, f.Width, f.Height)
	}

	h.frames = append(h.frames, f)
	h.pixels += n

	return nil
}

// skipExtension consumes an extension label and its data sub-blocks.
func (h *gifHandle) skipExtension() error {
	if _, err := h.r.ReadByte(); err != nil {
		return h.e.fail(CodeEOFTooSoon, "reading extension label: %v", err)
	}

	for {
		n, err := h.r.ReadByte()
		if err != nil {
			return h.e.fail(CodeEOFTooSoon, "reading extension block: %v", err)
		}

		if n == 0 {
			return nil
		}

		if _, err := io.ReadFull(h.r, h.tmp[:n]); err != nil {
			return h.e.fail(CodeReadFailed, "reading extension block: %v", err)
		}
	}
}

func (h *gifHandle) Screen() Screen {
	return h.screen
}

func (h *gifHandle) FrameCount() int {
	return len(h.frames)
}

func (h *gifHandle) FrameAt(i int) *Frame {
	if i < 0 || i >= len(h.frames) {
		return nil
	}

	return h.frames[i]
}

// Close drops the decoded frames. Closing twice is an error.
func (h *gifHandle) Close() error {
	if h.closed {
		return h.e.fail(CodeCloseFailed, "handle already closed")
	}

	h.closed = true
	h.frames = nil
	h.pixels = 0
	h.screen.ColorMap = nil
	h.r = nil

	return nil
}

// blockReader presents the (n, n bytes) sub-block sequence of image data as a
// plain stream. It returns io.EOF once the zero-length terminator is read.
type blockReader struct {
	r     *bufio.Reader
	slice []byte
	err   error
	tmp   [255]byte
}

func (b *blockReader) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}

	if len(p) == 0 {
		return 0, nil
	}

	if len(b.slice) == 0 {
		n, err := b.r.ReadByte()
		if err != nil {
			b.err = err

			return 0, err
		}

		if n == 0 {
			b.err = io.EOF

			return 0, io.EOF
		}

		b.slice = b.tmp[:n]
		if _, err := io.ReadFull(b.r, b.slice); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}

			b.err = err

			return 0, err
		}
	}

	n := copy(p, b.slice)
	b.slice = b.slice[n:]

	return n, nil
}

// interlacing lists the row passes of an interlaced image: start row and step.
var interlacing = [4]struct{ start, step int }{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

// uninterlace reorders the rows of an interlaced raster in place.
func uninterlace(raster []byte, width, height int) {
	if width == 0 || height == 0 {
		return
	}

	src := make([]byte, len(raster))
	copy(src, raster)

	off := 0
	for _, pass := range interlacing {
		for y := pass.start; y < height; y += pass.step {
			copy(raster[y*width:(y+1)*width], src[off:off+width])
			off += width
		}
	}
}
