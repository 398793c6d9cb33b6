package gifn

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
)

// Options specifies decoding parameters.
type Options struct {
	// PalettePolicy defines how raster indices beyond the effective color table are handled.
	// The default, PaletteFail, rejects such images.
	PalettePolicy PalettePolicy
	// Logger receives a record for every failed decode. If nil, slog.Default is used.
	Logger *slog.Logger
	// NewEngine creates the codec engine for a decode call.
	// If nil, the built-in engine is used.
	NewEngine func() Engine
}

// gifHeaderLen is the length of the signature checked by IsFormat.
const gifHeaderLen = 6

// decoderPool is a pool of decoder structs to reduce allocation overhead.
var decoderPool = sync.Pool{
	New: func() interface{} {
		return newDecoder()
	},
}

// Available reports whether the built-in codec engine is compiled in.
func Available() bool {
	return builtinEngine != nil
}

// IsFormat reports whether data starts with a GIF87a or GIF89a signature.
// It always returns false when the built-in codec engine is not available.
// A true result does not mean the rest of the stream decodes.
func IsFormat(data []byte) bool {
	if !Available() || len(data) < gifHeaderLen {
		return false
	}

	return hasSignature(data)
}

func hasSignature(data []byte) bool {
	if len(data) < gifHeaderLen {
		return false
	}

	sig := string(data[:gifHeaderLen])

	return sig == "GIF89a" || sig == "GIF87a"
}

// Interface to check if a reader knows its remaining length.
type readerWithLen interface {
	Len() int
}

// readAllData reads data from r, pre-allocating if the size is known.
func readAllData(r io.Reader) ([]byte, error) {
	if rl, ok := r.(readerWithLen); ok {
		size := rl.Len()
		if size > 0 {
			data := make([]byte, size)
			_, err := io.ReadFull(r, data)
			if err != nil {
				return nil, fmt.Errorf("failed to read image data: %w", err)
			}

			return data, nil
		}
	}

	return io.ReadAll(r)
}

// getDecoder takes a decoder from the pool and applies the options.
func getDecoder(opts []*Options) *decoder {
	d := decoderPool.Get().(*decoder)

	d.policy = PaletteFail
	d.logger = slog.Default()
	d.newEngine = builtinEngine

	if len(opts) > 0 && opts[0] != nil {
		d.policy = opts[0].PalettePolicy
		if opts[0].Logger != nil {
			d.logger = opts[0].Logger
		}

		if opts[0].NewEngine != nil {
			d.newEngine = opts[0].NewEngine
		}
	}

	return d
}

func putDecoder(d *decoder) {
	d.reset()
	decoderPool.Put(d)
}

// DecodeBytes decodes the first frame of the GIF held in data into a planar RGB image.
// data is only read and may be reused by the caller once DecodeBytes returns.
// The returned image is owned by the caller, who may hand its buffer back with Release.
// Failures are reported as *DecodeError.
func DecodeBytes(data []byte, opts ...*Options) (*Planar, error) {
	d := getDecoder(opts)
	defer putDecoder(d)

	if d.newEngine == nil {
		return nil, d.fail(KindUnsupported, CodeNone, nil)
	}

	if !hasSignature(data) {
		return nil, d.fail(KindFormatMismatch, CodeNone, nil)
	}

	return d.decode(data)
}

// Decode reads a GIF image from r and returns its first frame as a *Planar.
func Decode(r io.Reader, opts ...*Options) (image.Image, error) {
	data, err := readAllData(r)
	if err != nil {
		return nil, err
	}

	img, err := DecodeBytes(data, opts...)
	if err != nil {
		return nil, err
	}

	return img, nil
}

// DecodeConfig returns the global color model and the logical screen dimensions of a GIF image
// without decoding image data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAllData(r)
	if err != nil {
		return image.Config{}, err
	}

	d := getDecoder(nil)
	defer putDecoder(d)

	screen, err := d.decodeConfig(data)
	if err != nil {
		return image.Config{}, err
	}

	cfg := image.Config{
		ColorModel: color.RGBAModel,
		Width:      screen.Width,
		Height:     screen.Height,
	}

	if len(screen.ColorMap) > 0 {
		cfg.ColorModel = screen.ColorMap.Palette()
	}

	return cfg, nil
}

// init registers the GIF format with the standard library's image package.
func init() {
	decodeWrapper := func(r io.Reader) (image.Image, error) {
		return Decode(r)
	}

	image.RegisterFormat("gif", "GIF8?a", decodeWrapper, DecodeConfig)
}
