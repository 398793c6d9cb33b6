// Command gifplanes decodes the first frame of a GIF into planar RGB.
//
// The output is a PNG preview, or the raw planes when the output name ends in .zst:
// a "PLN3" magic, little-endian uint32 width and height, then the R, G and B planes,
// all zstd compressed.
package main

import (
	"encoding/binary"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gen2brain/gifn"
	"github.com/klauspost/compress/zstd"
)

const planesMagic = "PLN3"

// maxPlanePixels bounds the image size accepted from a planes header.
// GIF dimensions are 16-bit, and the decoder caps a frame at 2^26 pixels.
const maxPlanePixels = 1 << 26

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprint(os.Stderr, "Usage: gifplanes <input.gif> [output.png|output.zst]\n")
		os.Exit(1)
	}

	inPath := os.Args[1]
	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".png"
	if len(os.Args) == 3 {
		outPath = os.Args[2]
	}

	img, err := decodeFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("decode error:"), err)
		os.Exit(1)
	}
	defer img.Release()

	if err := writeFile(outPath, img); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("write error:"), err)
		os.Exit(1)
	}

	fmt.Printf("%s %s (%dx%d) → %s\n", color.GreenString("Decoded"), inPath, img.Width(), img.Height(), outPath)
}

func decodeFile(path string) (*gifn.Planar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !gifn.IsFormat(data) {
		return nil, fmt.Errorf("%s: %w", path, gifn.ErrNoGIF)
	}

	return gifn.DecodeBytes(data)
}

func writeFile(path string, img *gifn.Planar) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if strings.EqualFold(filepath.Ext(path), ".zst") {
		err = writePlanes(out, img)
	} else {
		err = png.Encode(out, img)
	}

	if err != nil {
		return err
	}

	return out.Close()
}

// writePlanes writes the raw planes of img as a zstd stream.
func writePlanes(w io.Writer, img *gifn.Planar) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}

	var hdr [12]byte
	copy(hdr[:4], planesMagic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(img.Width()))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(img.Height()))

	if _, err := enc.Write(hdr[:]); err != nil {
		enc.Close()

		return err
	}

	for _, c := range []gifn.Channel{gifn.ChannelR, gifn.ChannelG, gifn.ChannelB} {
		if _, err := enc.Write(img.Plane(c)); err != nil {
			enc.Close()

			return err
		}
	}

	return enc.Close()
}

// readPlanes reads a stream written by writePlanes.
func readPlanes(r io.Reader) (*gifn.Planar, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var hdr [12]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		return nil, err
	}

	if string(hdr[:4]) != planesMagic {
		return nil, fmt.Errorf("bad planes magic %q", hdr[:4])
	}

	width := int(binary.LittleEndian.Uint32(hdr[4:]))
	height := int(binary.LittleEndian.Uint32(hdr[8:]))

	if width > 0xffff || height > 0xffff || width*height > maxPlanePixels {
		return nil, fmt.Errorf("planes size %dx%d is too large", width, height)
	}

	img := gifn.NewPlanar(width, height)
	if _, err := io.ReadFull(dec, img.Pix); err != nil {
		img.Release()

		return nil, err
	}

	return img, nil
}
