// Command curconv converts Windows cursor schemes into X11 cursor themes.
//
// Each argument is either a scheme directory holding an INF installer, or a
// loose .cur/.ani file named after the role it provides. Loose files are
// gathered into a single theme.
//
//	curconv -out ~/.icons -scale 1.5,2 -kernel mitchell ./Neon
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/32bitkid/curconv"
	"github.com/32bitkid/curconv/logger"
	"github.com/32bitkid/curconv/resample"
	"github.com/32bitkid/curconv/theme"
	"github.com/32bitkid/curconv/xcursor"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func parseScales(s string, f resample.Scaler) ([]curconv.ScaleRequest, error) {
	var out []curconv.ScaleRequest
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("scale %q: %w", field, err)
		}
		out = append(out, curconv.ScaleRequest{Factor: v, Scaler: f})
	}
	return out, nil
}

func main() {
	out := flag.String("out", ".", "directory the themes are written below")
	name := flag.String("name", "converted", "theme name for loose cursor files")
	scales := flag.String("scale", "", "comma separated scale factors, e.g. 1.5,2")
	kernel := flag.String("kernel", "auto", "resampling kernel: auto, nearest, bilinear, mitchell or lanczos3")
	mitchellB := flag.Float64("mitchell-b", resample.DefaultB, "Mitchell-Netravali B")
	mitchellC := flag.Float64("mitchell-c", resample.DefaultC, "Mitchell-Netravali C")
	workers := flag.Int("j", 0, "roles converted at once (default GOMAXPROCS)")
	comment := flag.String("comment", "", "comment embedded in every cursor file")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	var err error
	var l *zap.Logger
	if *verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync() //nolint:errcheck

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: curconv [flags] scheme-dir|file.cur|file.ani ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	k, err := resample.ParseKernel(*kernel)
	if err != nil {
		l.Fatal("kernel", zap.Error(err))
	}
	filter := resample.NewFilter(k)
	filter.B, filter.C = *mitchellB, *mitchellC

	reqs, err := parseScales(*scales, filter)
	if err != nil {
		l.Fatal("scale", zap.Error(err))
	}

	c := &curconv.Converter{Scales: reqs, Workers: *workers}
	if *comment != "" {
		c.Comments = []xcursor.Comment{{Kind: xcursor.Other, Text: *comment}}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, l)

	if err := run(ctx, c, &theme.Writer{Root: *out}, *name, flag.Args()); err != nil {
		for _, e := range multierr.Errors(err) {
			l.Error("conversion failed", zap.Error(e))
		}
		l.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, c *curconv.Converter, w *theme.Writer, name string, args []string) error {
	var errs error
	var loose []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !fi.IsDir() {
			loose = append(loose, arg)
			continue
		}
		t, err := theme.Load(ctx, arg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		errs = multierr.Append(errs, c.ConvertTheme(ctx, t, w))
	}

	if len(loose) > 0 {
		t, err := theme.FromFiles(name, loose)
		if err != nil {
			return multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, c.ConvertTheme(ctx, t, w))
	}
	return errs
}
