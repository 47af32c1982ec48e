// Package theme turns Windows cursor schemes into X11 cursor themes.
//
// On the input side it reads the INF installer shipped with a scheme and
// resolves the cursor files it names. On the output side it lays out
// <root>/<name>/cursors with one file per role plus a symlink for every
// other X11 name of that role, and an index.theme.
package theme

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/32bitkid/curconv/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Source is the raw content of one role's cursor file.
type Source struct {
	Role Role
	Path string
	Data []byte
}

type Theme struct {
	Name    string
	Sources []Source
}

var (
	ErrNoINF    = errors.New("no INF file")
	ErrManyINF  = errors.New("more than one INF file")
	ErrNoSource = errors.New("no cursor files")
)

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// findFile resolves name inside dir, falling back to a case-insensitive
// match. Several case-insensitive matches are an error.
func findFile(dir string, files []string, name string) (string, error) {
	var found []string
	for _, f := range files {
		if f == name {
			return filepath.Join(dir, f), nil
		}
		if strings.EqualFold(f, name) {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return "", fs.ErrNotExist
	case 1:
		return filepath.Join(dir, found[0]), nil
	}
	return "", fmt.Errorf("%q is ambiguous: %v", name, found)
}

// Load reads the scheme in dir. Cursor files the scheme names but that are
// missing are logged and skipped.
func Load(ctx context.Context, dir string) (*Theme, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var infs []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".inf") {
			infs = append(infs, f)
		}
	}
	switch len(infs) {
	case 0:
		return nil, fmt.Errorf("%s: %w", dir, ErrNoINF)
	case 1:
	default:
		return nil, fmt.Errorf("%s: %w: %v", dir, ErrManyINF, infs)
	}

	infPath := filepath.Join(dir, infs[0])
	fh, err := os.Open(infPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	scheme, err := ParseINF(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", infPath, err)
	}

	l := logger.L(ctx).With(zap.String("theme", scheme.Name))
	t := &Theme{Name: scheme.Name}
	for _, m := range scheme.Mappings {
		path, err := findFile(dir, files, m.File)
		if err != nil {
			l.Warn("skipping cursor", zap.Stringer("role", m.Role), zap.String("file", m.File), zap.Error(err))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		t.Sources = append(t.Sources, Source{Role: m.Role, Path: path, Data: data})
	}
	if len(t.Sources) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSource)
	}
	l.Debug("loaded scheme", zap.String("inf", infPath), zap.Int("cursors", len(t.Sources)))
	return t, nil
}

// FromFiles builds a theme from loose cursor files. Each file's role comes
// from its base name, so "busy.ani" or "AppStarting.ani" both work.
func FromFiles(name string, paths []string) (*Theme, error) {
	t := &Theme{Name: name}
	seen := map[Role]string{}
	for _, p := range paths {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		role, err := ParseRole(stem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, ok := seen[role]; ok {
			return nil, fmt.Errorf("%s and %s both map to %v", prev, p, role)
		}
		seen[role] = p

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		t.Sources = append(t.Sources, Source{Role: role, Path: p, Data: data})
	}
	if len(t.Sources) == 0 {
		return nil, ErrNoSource
	}
	return t, nil
}

// Output is an encoded cursor file for one role.
type Output struct {
	Role Role
	Data []byte
}

// Writer writes themes below Root.
type Writer struct {
	Root    string
	Comment string
}

const defaultComment = "converted from a Windows cursor scheme; edit index.theme to change this"

// DirName makes a theme name safe to use as a directory name.
func DirName(name string) string {
	name = strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name))
	if name == "" || name == "." || name == ".." {
		return "converted"
	}
	return name
}

// Write lays out the theme. A role that fails to write does not stop the
// others; all failures are returned together.
func (w *Writer) Write(ctx context.Context, name string, outputs []Output) error {
	themeDir := filepath.Join(w.Root, DirName(name))
	cursorDir := filepath.Join(themeDir, "cursors")
	if err := os.MkdirAll(cursorDir, 0o755); err != nil {
		return err
	}

	l := logger.L(ctx).With(zap.String("theme", name))
	var errs error
	for _, out := range outputs {
		if err := writeRole(cursorDir, out); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%v: %w", out.Role, err))
			continue
		}
		l.Debug("wrote cursor", zap.Stringer("role", out.Role), zap.String("file", out.Role.FileName()))
	}

	errs = multierr.Append(errs, w.writeIndex(themeDir, name))
	return errs
}

func writeRole(dir string, out Output) error {
	aliases := out.Role.Aliases()
	if len(aliases) == 0 {
		return fmt.Errorf("no file name for role %v", out.Role)
	}
	if err := os.WriteFile(filepath.Join(dir, aliases[0]), out.Data, 0o644); err != nil {
		return err
	}

	var errs error
	for _, link := range aliases[1:] {
		err := os.Symlink(aliases[0], filepath.Join(dir, link))
		if err != nil && !errors.Is(err, fs.ErrExist) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (w *Writer) writeIndex(dir, name string) error {
	comment := w.Comment
	if comment == "" {
		comment = defaultComment
	}
	var b strings.Builder
	b.WriteString("[Icon Theme]\n")
	fmt.Fprintf(&b, "Name=%s\n", name)
	fmt.Fprintf(&b, "Comment=%s\n", comment)
	b.WriteString("# Inherits=fallback_theme\n")
	return os.WriteFile(filepath.Join(dir, "index.theme"), []byte(b.String()), 0o644)
}
