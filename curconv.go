// Package curconv converts Windows cursors into X11 cursor themes.
//
// Each cursor role goes through the same pipeline: the CUR or ANI container
// is decoded into size groups, every requested scale factor adds a
// resampled copy of each original size, and the result is encoded as one
// Xcursor file. Roles are independent; a role that fails is reported and
// the others carry on.
package curconv

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/logger"
	"github.com/32bitkid/curconv/raster"
	"github.com/32bitkid/curconv/resample"
	"github.com/32bitkid/curconv/theme"
	"github.com/32bitkid/curconv/xcursor"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScaleRequest adds a size variant Factor times each original size. A nil
// Scaler uses resample.NewFilter(resample.Auto).
type ScaleRequest struct {
	Factor float64
	Scaler resample.Scaler
}

func (r ScaleRequest) scaler() resample.Scaler {
	if r.Scaler == nil {
		return resample.NewFilter(resample.Auto)
	}
	return r.Scaler
}

type Input struct {
	Role   theme.Role
	Source string
	Data   []byte
}

// SkippedSize records a synthesized size that could not be produced.
type SkippedSize struct {
	Size   int
	Factor float64
	Err    error
}

type Result struct {
	Role    theme.Role
	Source  string
	Blob    []byte
	Sizes   []int
	Skipped []SkippedSize
	Err     error
}

// RoleError is the failure of a whole role.
type RoleError struct {
	Role theme.Role
	Kind errkind.Kind
	Err  error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%v: %v", e.Role, e.Err)
}

func (e *RoleError) Unwrap() error { return e.Err }

func roleError(role theme.Role, err error) *RoleError {
	return &RoleError{Role: role, Kind: errkind.Of(err), Err: err}
}

type Converter struct {
	Scales   []ScaleRequest
	Workers  int
	Comments []xcursor.Comment
}

func (c *Converter) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

type scalePass struct {
	req    ScaleRequest
	source raster.SizeGroup
	size   int

	frames raster.Sequence
	err    error
}

func (p *scalePass) run() {
	s := p.req.scaler()
	p.frames = make(raster.Sequence, len(p.source.Frames))
	for i, f := range p.source.Frames {
		w := resample.ScaledSize(f.Image.Width, p.req.Factor)
		h := resample.ScaledSize(f.Image.Height, p.req.Factor)
		img, err := s.Scale(f.Image, w, h)
		if err != nil {
			p.err = fmt.Errorf("frame %d: %w", i, err)
			p.frames = nil
			return
		}
		p.frames[i] = raster.Frame{Image: img, Delay: f.Delay}
	}
}

// plan lists the sizes every request adds. Sizes the source already has,
// or that an earlier pass produces, are not planned again.
func (c *Converter) plan(cur *raster.Cursor) ([]*scalePass, []SkippedSize) {
	taken := map[int]bool{}
	for _, g := range cur.Groups {
		taken[g.Size] = true
	}

	var passes []*scalePass
	var skipped []SkippedSize
	for _, req := range c.Scales {
		if !(req.Factor > 0) || math.IsInf(req.Factor, 1) {
			skipped = append(skipped, SkippedSize{
				Factor: req.Factor,
				Err:    errkind.Errorf(errkind.ResamplingError, "invalid scale factor %v", req.Factor),
			})
			continue
		}
		for _, g := range cur.Groups {
			if p := float64(g.Size) * req.Factor; math.Round(p) > xcursor.MaxDimension {
				skipped = append(skipped, SkippedSize{
					Size:   xcursor.MaxDimension + 1,
					Factor: req.Factor,
					Err:    errkind.Errorf(errkind.ResamplingError, "size %d x %v exceeds %d", g.Size, req.Factor, xcursor.MaxDimension),
				})
				continue
			}
			size := resample.ScaledSize(g.Size, req.Factor)
			if taken[size] {
				continue
			}
			taken[size] = true
			passes = append(passes, &scalePass{req: req, source: g, size: size})
		}
	}
	return passes, skipped
}

// ConvertRole runs one role through decode, scale and encode.
func (c *Converter) ConvertRole(ctx context.Context, in Input) Result {
	start := time.Now()
	res := Result{Role: in.Role, Source: in.Source}
	l := logger.L(ctx).With(zap.Stringer("role", in.Role), zap.String("source", in.Source))

	cur, err := Decode(in.Data)
	if err == nil {
		err = cur.Validate()
		if err != nil {
			err = errkind.Errorf(errkind.MalformedContainer, "%w", err)
		}
	}
	if err != nil {
		res.Err = roleError(in.Role, fmt.Errorf("decode: %w", err))
		l.Error("decode failed", zap.Error(err))
		return res
	}

	passes, skipped := c.plan(cur)
	var g errgroup.Group
	for _, p := range passes {
		g.Go(func() error {
			p.run()
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	out := &raster.Cursor{Animated: cur.Animated, Groups: append([]raster.SizeGroup(nil), cur.Groups...)}
	for _, p := range passes {
		if p.err != nil {
			skipped = append(skipped, SkippedSize{Size: p.size, Factor: p.req.Factor, Err: p.err})
			continue
		}
		out.Insert(raster.SizeGroup{Size: p.size, Frames: p.frames})
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Size < skipped[j].Size })
	for _, s := range skipped {
		l.Warn("skipped size", zap.Int("size", s.Size), zap.Float64("factor", s.Factor), zap.Error(s.Err))
	}
	res.Skipped = skipped

	blob, err := xcursor.Encode(out, c.Comments...)
	if err != nil {
		res.Err = roleError(in.Role, fmt.Errorf("encode: %w", err))
		l.Error("encode failed", zap.Error(err))
		return res
	}

	res.Blob = blob
	res.Sizes = out.Sizes()
	l.Info("converted",
		zap.Ints("sizes", res.Sizes),
		zap.Bool("animated", out.Animated),
		zap.Duration("elapsed", time.Since(start)))
	return res
}

// Convert processes roles on a bounded pool. Results come back in input
// order; the returned error combines the failures of every role. Roles that
// have not started when ctx is cancelled fail with ctx.Err().
func (c *Converter) Convert(ctx context.Context, inputs []Input) ([]Result, error) {
	results := make([]Result, len(inputs))

	var g errgroup.Group
	g.SetLimit(c.workers())
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Role: in.Role, Source: in.Source, Err: roleError(in.Role, err)}
				return nil
			}
			results[i] = c.ConvertRole(ctx, in)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	var errs error
	for _, r := range results {
		errs = multierr.Append(errs, r.Err)
	}
	return results, errs
}

// Outputs collects the encoded files of the roles that succeeded.
func Outputs(results []Result) []theme.Output {
	var out []theme.Output
	for _, r := range results {
		if r.Err == nil {
			out = append(out, theme.Output{Role: r.Role, Data: r.Blob})
		}
	}
	return out
}

// ConvertTheme converts every source of t and writes the theme with w.
// Roles that fail are left out of the written theme and reported in the
// returned error.
func (c *Converter) ConvertTheme(ctx context.Context, t *theme.Theme, w *theme.Writer) error {
	inputs := make([]Input, len(t.Sources))
	for i, s := range t.Sources {
		inputs[i] = Input{Role: s.Role, Source: s.Path, Data: s.Data}
	}

	ctx = logger.With(ctx, zap.String("theme", t.Name))
	results, errs := c.Convert(ctx, inputs)
	if outputs := Outputs(results); len(outputs) > 0 {
		errs = multierr.Append(errs, w.Write(ctx, t.Name, outputs))
	}
	return errs
}
