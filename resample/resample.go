// Package resample rescales cursor images.
//
// Scaling works on premultiplied pixels so transparent neighbours do not
// bleed color into visible edges. Kernels are separable and run through
// golang.org/x/image/draw, which widens the filter support when shrinking.
package resample

import (
	"image"
	"math"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/raster"
	xdraw "golang.org/x/image/draw"
)

// MaxDimension is the largest width or height a scale may produce.
const MaxDimension = 0x7fff

type Scaler interface {
	Scale(img *raster.Image, w, h int) (*raster.Image, error)
}

// Filter is a Scaler using one kernel. B and C only apply to Mitchell and
// are used as given; NewFilter fills in the usual defaults.
type Filter struct {
	Kernel Kernel
	B, C   float64
}

func NewFilter(k Kernel) Filter {
	return Filter{Kernel: k, B: DefaultB, C: DefaultC}
}

func (f Filter) String() string {
	return f.Kernel.String()
}

func (f Filter) interpolator(ratio float64) (xdraw.Interpolator, error) {
	switch k := f.Kernel.Resolve(ratio); k {
	case Nearest:
		return xdraw.NearestNeighbor, nil
	case Bilinear:
		return xdraw.BiLinear, nil
	case Mitchell:
		if math.IsNaN(f.B) || math.IsInf(f.B, 0) || math.IsNaN(f.C) || math.IsInf(f.C, 0) {
			return nil, errkind.Errorf(errkind.ResamplingError, "invalid mitchell parameters B=%v C=%v", f.B, f.C)
		}
		return mitchellKernel(f.B, f.C), nil
	case Lanczos3:
		return lanczos3Kernel, nil
	default:
		return nil, errkind.Errorf(errkind.ResamplingError, "unknown kernel %v", k)
	}
}

// Scale returns img resampled to exactly w x h. The hotspot follows the
// scale ratio and stays inside the new bounds. A request for the current
// size returns an unchanged copy.
func (f Filter) Scale(img *raster.Image, w, h int) (*raster.Image, error) {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, errkind.Errorf(errkind.ResamplingError, "invalid target size %dx%d", w, h)
	}
	if err := img.Validate(); err != nil {
		return nil, errkind.Errorf(errkind.ResamplingError, "source: %w", err)
	}
	if w == img.Width && h == img.Height {
		return img.Clone(), nil
	}

	sx := float64(w) / float64(img.Width)
	sy := float64(h) / float64(img.Height)
	interp, err := f.interpolator(math.Max(sx, sy))
	if err != nil {
		return nil, err
	}

	src := img.ToRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	hotspot := image.Pt(
		int(math.Round(float64(img.Hotspot.X)*sx)),
		int(math.Round(float64(img.Hotspot.Y)*sy)),
	)
	out := raster.FromRGBA(dst, hotspot)
	out.Hotspot = out.ClampedHotspot()
	return out, nil
}

func Resample(img *raster.Image, w, h int, f Filter) (*raster.Image, error) {
	return f.Scale(img, w, h)
}

// ScaledSize applies factor to a nominal size, rounding to the nearest
// integer and never going below 1. Results beyond MaxDimension saturate at
// MaxDimension+1.
func ScaledSize(n int, factor float64) int {
	s := math.Round(float64(n) * factor)
	switch {
	case s > MaxDimension:
		return MaxDimension + 1
	case !(s >= 1):
		return 1
	}
	return int(s)
}
