package resample

import (
	"fmt"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

type Kernel uint8

const (
	// Auto picks a kernel from the scale ratio, see Kernel.Resolve.
	Auto Kernel = iota
	Nearest
	Bilinear
	Mitchell
	Lanczos3
)

var kernelNames = [...]string{
	Auto:     "auto",
	Nearest:  "nearest",
	Bilinear: "bilinear",
	Mitchell: "mitchell",
	Lanczos3: "lanczos3",
}

func (k Kernel) String() string {
	if int(k) < len(kernelNames) {
		return kernelNames[k]
	}
	return fmt.Sprintf("Kernel(%d)", uint8(k))
}

func ParseKernel(s string) (Kernel, error) {
	for k, name := range kernelNames {
		if strings.EqualFold(s, name) {
			return Kernel(k), nil
		}
	}
	return Auto, fmt.Errorf("unknown kernel %q", s)
}

// Resolve replaces Auto with a concrete kernel for the given scale ratio:
// Nearest for whole-number enlargements, Lanczos3 when shrinking and
// Mitchell for everything else.
func (k Kernel) Resolve(ratio float64) Kernel {
	if k != Auto {
		return k
	}
	switch {
	case ratio > 1 && ratio == math.Trunc(ratio):
		return Nearest
	case ratio < 1:
		return Lanczos3
	}
	return Mitchell
}

// Default Mitchell-Netravali parameters.
const (
	DefaultB = 1.0 / 3
	DefaultC = 1.0 / 3
)

// mitchellKernel is the Mitchell-Netravali cubic with parameters b and c.
func mitchellKernel(b, c float64) *xdraw.Kernel {
	return &xdraw.Kernel{
		Support: 2,
		At: func(t float64) float64 {
			t = math.Abs(t)
			t2, t3 := t*t, t*t*t
			switch {
			case t < 1:
				return ((12-9*b-6*c)*t3 + (-18+12*b+6*c)*t2 + (6 - 2*b)) / 6
			case t < 2:
				return ((-b-6*c)*t3 + (6*b+30*c)*t2 + (-12*b-48*c)*t + (8*b + 24*c)) / 6
			}
			return 0
		},
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

var lanczos3Kernel = &xdraw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		t = math.Abs(t)
		if t >= 3 {
			return 0
		}
		return sinc(t) * sinc(t/3)
	},
}
