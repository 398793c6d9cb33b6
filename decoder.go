package gifn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// state tracks the codec lifecycle of a single decode call.
type state int

const (
	stateUnopened state = iota
	stateOpened
	stateSlurped
	stateClosed
	stateFailed
)

// errNoHandle reports an engine that opened without error but returned no handle.
var errNoHandle = errors.New("codec engine returned no handle")

// decoder holds the state of one decode call.
type decoder struct {
	src       memorySource  // Input cursor handed to the engine.
	engine    Engine        // Codec engine for this call.
	handle    Handle        // Open stream, nil until Open succeeds.
	state     state         // Current lifecycle state.
	policy    PalettePolicy // Out-of-range palette index handling.
	logger    *slog.Logger  // Failure sink.
	newEngine func() Engine // Engine factory.
}

func newDecoder() *decoder {
	return new(decoder)
}

// reset clears the decoder state for reuse. It drops all references to the input and the codec.
func (d *decoder) reset() {
	*d = decoder{}
}

// frameInfo is what the decoder reads from the first frame.
type frameInfo struct {
	width, height int
	depth         int
	background    uint8
	colors        int
	local         bool
}

// fail records the failure, logs it and builds the returned error.
func (d *decoder) fail(kind Kind, code int, err error) error {
	d.state = stateFailed

	level := slog.LevelWarn
	if kind == KindFormatMismatch {
		level = slog.LevelDebug
	}

	d.logger.Log(context.Background(), level, "gif decode failed", "kind", kind.String(), "code", code, "err", err)

	return &DecodeError{Kind: kind, Code: code, Err: err}
}

// decode runs open, slurp, first frame extraction, assembly and close over data.
// Once a handle exists it is closed exactly once on every path, and the output is
// released whenever an error is returned.
func (d *decoder) decode(data []byte) (out *Planar, err error) {
	d.src.reset(data)
	d.engine = d.newEngine()
	d.state = stateUnopened

	h, err := d.engine.Open(&d.src)
	code := d.engine.LastError()
	if err != nil {
		return nil, d.fail(KindOpenFailed, code, err)
	}

	if h == nil {
		return nil, d.fail(KindOpenFailed, CodeOpenFailed, errNoHandle)
	}

	d.handle = h
	d.state = stateOpened

	defer func() {
		cerr := d.handle.Close()
		ccode := d.engine.LastError()
		d.handle = nil

		if cerr == nil {
			if err == nil {
				d.state = stateClosed
			}

			return
		}

		out.Release()
		out = nil

		if err != nil {
			// The call already failed and its resources could not be released either.
			err = d.fail(KindUnrecoverable, ccode, errors.Join(err, cerr))

			return
		}

		err = d.fail(KindCloseFailed, ccode, cerr)
	}()

	err = h.Slurp()
	code = d.engine.LastError()
	if err != nil {
		return nil, d.fail(KindSlurpFailed, code, err)
	}

	d.state = stateSlurped

	if h.FrameCount() == 0 {
		return nil, d.fail(KindNoFrames, CodeNone, nil)
	}

	f := h.FrameAt(0)
	if f == nil || f.Width < 0 || f.Height < 0 || len(f.Raster) < f.Width*f.Height {
		return nil, d.fail(KindSlurpFailed, CodeImageDefect, errors.New("first frame raster is incomplete"))
	}

	screen := h.Screen()
	res := newResolver(f, screen, d.policy)
	info := frameInfo{
		width:      f.Width,
		height:     f.Height,
		depth:      screen.ColorResolution,
		background: screen.BackgroundIndex,
		colors:     len(res.table),
		local:      res.local,
	}

	d.logger.Debug("gif first frame",
		"width", info.width, "height", info.height, "depth", info.depth,
		"colors", info.colors, "background", info.background, "local", info.local,
		"frames", h.FrameCount())

	out = allocPlanar(info.width, info.height)
	if err := assemble(out, f.Raster, info.width, info.height, &res); err != nil {
		out.Release()
		out = nil

		var ce *CodecError
		code := CodeNone
		if errors.As(err, &ce) {
			code = ce.Code
		}

		return nil, d.fail(KindPaletteIndex, code, err)
	}

	return out, nil
}

// decodeConfig opens the stream and reports its logical screen.
func (d *decoder) decodeConfig(data []byte) (Screen, error) {
	if d.newEngine == nil {
		return Screen{}, d.fail(KindUnsupported, CodeNone, nil)
	}

	d.src.reset(data)
	d.engine = d.newEngine()

	h, err := d.engine.Open(&d.src)
	code := d.engine.LastError()
	if err != nil {
		return Screen{}, d.fail(KindOpenFailed, code, err)
	}

	if h == nil {
		return Screen{}, d.fail(KindOpenFailed, CodeOpenFailed, errNoHandle)
	}

	screen := h.Screen()
	// Detach the color map from the handle before closing it.
	screen.ColorMap = append(ColorTable(nil), screen.ColorMap...)

	if err := h.Close(); err != nil {
		return Screen{}, d.fail(KindCloseFailed, d.engine.LastError(), fmt.Errorf("closing after header: %w", err))
	}

	return screen, nil
}
