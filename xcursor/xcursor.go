// Package xcursor reads and writes X11 cursor files.
//
// A file is a 16 byte header, a table of contents of (type, subtype,
// position) triples and the chunks the table points at. Every field is a
// little-endian uint32. Image chunks carry premultiplied ARGB pixels;
// comment chunks carry UTF-8 text.
package xcursor

import (
	"github.com/32bitkid/curconv/raster"
)

const (
	magic         = "Xcur"
	fileHeaderLen = 16
	fileVersion   = 0x00010000
	tocEntryLen   = 12

	typeComment = 0xfffe0001
	typeImage   = 0xfffd0002

	commentHeaderLen = 20
	imageHeaderLen   = 36
	chunkVersion     = 1
)

// MaxDimension bounds image width and height.
const MaxDimension = 0x7fff

type CommentKind uint32

const (
	Copyright CommentKind = 1
	License   CommentKind = 2
	Other     CommentKind = 3
)

func (k CommentKind) String() string {
	switch k {
	case Copyright:
		return "copyright"
	case License:
		return "license"
	case Other:
		return "other"
	}
	return "unknown"
}

type Comment struct {
	Kind CommentKind
	Text string
}

// Image is one image chunk. Size is the nominal size from the table of
// contents; Delay is in milliseconds.
type Image struct {
	Size  int
	Delay uint32
	Image *raster.Image
}

// File is the content of a decoded cursor file in table of contents order.
type File struct {
	Comments []Comment
	Images   []Image
}

// Cursor groups the images of f by nominal size. Within a size, frames keep
// file order.
func (f *File) Cursor() *raster.Cursor {
	c := &raster.Cursor{}
	for _, img := range f.Images {
		c.Add(img.Size, raster.Frame{Image: img.Image, Delay: img.Delay})
	}
	for _, g := range c.Groups {
		if len(g.Frames) > 1 {
			c.Animated = true
		}
	}
	return c
}
