// Package raster holds the in-memory cursor representation shared by the
// decoders, the resampler and the Xcursor encoder.
package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Image is a premultiplied ARGB raster with a hotspot.
//
// Pix is row-major, top-to-bottom, one 0xAARRGGBB word per pixel. Written
// little-endian each word becomes the B, G, R, A byte sequence Xcursor uses.
type Image struct {
	Width   int
	Height  int
	Hotspot image.Point
	Pix     []uint32
}

// New allocates a transparent w x h image.
func New(w, h int) *Image {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("raster: invalid dimensions %dx%d", w, h))
	}
	return &Image{
		Width:  w,
		Height: h,
		Pix:    make([]uint32, w*h),
	}
}

func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height {
		return fmt.Errorf("pixel buffer length %d does not match %dx%d", len(img.Pix), img.Width, img.Height)
	}
	return nil
}

// ClampedHotspot returns the hotspot clamped into the image bounds.
func (img *Image) ClampedHotspot() image.Point {
	return image.Pt(clamp(img.Hotspot.X, img.Width-1), clamp(img.Hotspot.Y, img.Height-1))
}

func clamp(v, max int) int {
	switch {
	case v < 0:
		return 0
	case v > max:
		return max
	}
	return v
}

// NominalSize is the larger of the two dimensions.
func (img *Image) NominalSize() int {
	if img.Width > img.Height {
		return img.Width
	}
	return img.Height
}

func (img *Image) Clone() *Image {
	c := *img
	c.Pix = append([]uint32(nil), img.Pix...)
	return &c
}

func (img *Image) ColorModel() color.Model { return color.RGBAModel }

func (img *Image) Bounds() image.Rectangle { return image.Rect(0, 0, img.Width, img.Height) }

func (img *Image) At(x, y int) color.Color { return img.RGBAAt(x, y) }

func (img *Image) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return color.RGBA{}
	}
	return Unpack(img.Pix[y*img.Width+x])
}

func (img *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	img.Pix[y*img.Width+x] = Pack(color.RGBAModel.Convert(c).(color.RGBA))
}

// Pack converts a premultiplied color into an ARGB word.
func Pack(c color.RGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of Pack.
func Unpack(p uint32) color.RGBA {
	return color.RGBA{
		R: uint8(p >> 16),
		G: uint8(p >> 8),
		B: uint8(p),
		A: uint8(p >> 24),
	}
}

// Premultiply scales a straight-alpha channel value by a, rounding to nearest.
func Premultiply(c, a uint8) uint8 {
	return uint8((uint16(c)*uint16(a) + 127) / 255)
}

// ToRGBA copies the image into a standard library RGBA image.
func (img *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	for i, p := range img.Pix {
		c := Unpack(p)
		o := i * 4
		dst.Pix[o+0] = c.R
		dst.Pix[o+1] = c.G
		dst.Pix[o+2] = c.B
		dst.Pix[o+3] = c.A
	}
	return dst
}

// FromRGBA copies src into a new Image. Color channels are clamped to the
// alpha channel so the premultiplied invariant holds even after filters with
// negative lobes.
func FromRGBA(src *image.RGBA, hotspot image.Point) *Image {
	b := src.Bounds()
	img := New(b.Dx(), b.Dy())
	img.Hotspot = hotspot
	for y := 0; y < img.Height; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < img.Width; x++ {
			r, g, bl, a := row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3]
			if r > a {
				r = a
			}
			if g > a {
				g = a
			}
			if bl > a {
				bl = a
			}
			img.Pix[y*img.Width+x] = Pack(color.RGBA{R: r, G: g, B: bl, A: a})
		}
	}
	return img
}
