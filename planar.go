package gifn

import (
	"image"
	"image/color"
	"sync"
)

// Channel selects one plane of a Planar image.
type Channel int

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
)

// Planar is an RGB image stored as three consecutive planes R, G, B.
// Each plane holds Height rows of Stride elements; pixel (x, y) lives at PixOffset(x, y) within its plane.
// Components are the 8-bit palette values passed through unchanged.
type Planar struct {
	// Pix holds the R plane followed by the G and B planes.
	Pix    []uint8
	Rect   image.Rectangle
	stride int
}

// planePool recycles plane buffers returned through Release.
var planePool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0)

		return &b
	},
}

// NewPlanar allocates a zeroed planar image of the given size.
func NewPlanar(width, height int) *Planar {
	n := 3 * width * height

	bufPtr := planePool.Get().(*[]byte)
	pix := *bufPtr
	if cap(pix) < n {
		pix = make([]byte, n)
	} else {
		pix = pix[:n]
		clear(pix)
	}

	return &Planar{
		Pix:    pix,
		Rect:   image.Rect(0, 0, width, height),
		stride: width,
	}
}

// allocPlanar is the allocation primitive used by the decoder.
var allocPlanar = NewPlanar

// Release hands the planes back for reuse. The image must not be used afterwards.
// Calling Release more than once is a no-op.
func (p *Planar) Release() {
	if p == nil || p.Pix == nil {
		return
	}

	pix := p.Pix[:0]
	p.Pix = nil
	p.Rect = image.Rectangle{}
	planePool.Put(&pix)
}

// Width returns the number of pixels per row.
func (p *Planar) Width() int {
	return p.Rect.Dx()
}

// Height returns the number of rows.
func (p *Planar) Height() int {
	return p.Rect.Dy()
}

// Stride is the number of elements between vertically adjacent pixels of a plane.
func (p *Planar) Stride() int {
	return p.stride
}

// Plane returns the elements of a single channel.
func (p *Planar) Plane(c Channel) []uint8 {
	size := p.stride * p.Rect.Dy()

	return p.Pix[int(c)*size : (int(c)+1)*size]
}

// PixOffset returns the index of pixel (x, y) within a plane.
func (p *Planar) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.stride + (x - p.Rect.Min.X)
}

// RGBAt returns the color of pixel (x, y), or black outside the bounds.
func (p *Planar) RGBAt(x, y int) RGB {
	if !(image.Point{x, y}.In(p.Rect)) {
		return RGB{}
	}

	i := p.PixOffset(x, y)
	size := p.stride * p.Rect.Dy()

	return RGB{p.Pix[i], p.Pix[size+i], p.Pix[2*size+i]}
}

// SetRGB sets the color of pixel (x, y). Points outside the bounds are ignored.
func (p *Planar) SetRGB(x, y int, c RGB) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}

	i := p.PixOffset(x, y)
	size := p.stride * p.Rect.Dy()
	p.Pix[i] = c.R
	p.Pix[size+i] = c.G
	p.Pix[2*size+i] = c.B
}

// ColorModel returns color.RGBAModel; every pixel is opaque.
func (p *Planar) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds returns the image rectangle.
func (p *Planar) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the opaque color.RGBA of pixel (x, y).
func (p *Planar) At(x, y int) color.Color {
	c := p.RGBAt(x, y)

	return color.RGBA{c.R, c.G, c.B, 0xff}
}

// assemble resolves every raster index of a width x height frame into dst.
func assemble(dst *Planar, raster []byte, width, height int, r *resolver) error {
	size := dst.stride * height
	red, green, blue := dst.Pix[:size], dst.Pix[size:2*size], dst.Pix[2*size:3*size]

	for y := 0; y < height; y++ {
		row := raster[y*width : (y+1)*width]
		off := y * dst.stride
		for x, idx := range row {
			c, err := r.resolve(idx)
			if err != nil {
				return err
			}

			red[off+x] = c.R
			green[off+x] = c.G
			blue[off+x] = c.B
		}
	}

	return nil
}
