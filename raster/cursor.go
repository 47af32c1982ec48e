package raster

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultDelay replaces a zero frame delay, in milliseconds.
const DefaultDelay = 100

var ErrEmptySequence = errors.New("empty frame sequence")

// Frame is one image of a sequence and its display time in milliseconds.
// A zero Delay means "use the default".
type Frame struct {
	Image *Image
	Delay uint32
}

func (f Frame) NormalizedDelay() uint32 {
	if f.Delay == 0 {
		return DefaultDelay
	}
	return f.Delay
}

// Sequence is a list of frames in playback order.
type Sequence []Frame

func (s Sequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptySequence
	}
	for i, f := range s {
		if f.Image == nil {
			return fmt.Errorf("frame %d: missing image", i)
		}
		if err := f.Image.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// SizeGroup is every frame of a cursor at one nominal size. Size is the size
// the source declared, not one derived from the stored pixels.
type SizeGroup struct {
	Size   int
	Frames Sequence
}

// Cursor is a decoded cursor as a set of size groups, kept in ascending size
// order. A static cursor has one frame per group.
type Cursor struct {
	Groups   []SizeGroup
	Animated bool
}

func (c *Cursor) index(size int) (int, bool) {
	i := sort.Search(len(c.Groups), func(i int) bool { return c.Groups[i].Size >= size })
	return i, i < len(c.Groups) && c.Groups[i].Size == size
}

// Add appends frame to the group of the given size, creating it if needed.
func (c *Cursor) Add(size int, frame Frame) {
	i, ok := c.index(size)
	if !ok {
		c.Groups = append(c.Groups, SizeGroup{})
		copy(c.Groups[i+1:], c.Groups[i:])
		c.Groups[i] = SizeGroup{Size: size}
	}
	c.Groups[i].Frames = append(c.Groups[i].Frames, frame)
}

// Insert adds a whole group. It reports false, leaving c untouched, if the
// size is already present.
func (c *Cursor) Insert(g SizeGroup) bool {
	i, ok := c.index(g.Size)
	if ok {
		return false
	}
	c.Groups = append(c.Groups, SizeGroup{})
	copy(c.Groups[i+1:], c.Groups[i:])
	c.Groups[i] = g
	return true
}

func (c *Cursor) Group(size int) (SizeGroup, bool) {
	i, ok := c.index(size)
	if !ok {
		return SizeGroup{}, false
	}
	return c.Groups[i], true
}

func (c *Cursor) Sizes() []int {
	sizes := make([]int, len(c.Groups))
	for i, g := range c.Groups {
		sizes[i] = g.Size
	}
	return sizes
}

func (c *Cursor) Validate() error {
	if len(c.Groups) == 0 {
		return ErrEmptySequence
	}
	for _, g := range c.Groups {
		if err := g.Frames.Validate(); err != nil {
			return fmt.Errorf("size %d: %w", g.Size, err)
		}
	}
	return nil
}

// Clone deep-copies the cursor so the copy shares no images with c.
func (c *Cursor) Clone() *Cursor {
	out := &Cursor{Animated: c.Animated, Groups: make([]SizeGroup, len(c.Groups))}
	for i, g := range c.Groups {
		frames := make(Sequence, len(g.Frames))
		for j, f := range g.Frames {
			frames[j] = Frame{Image: f.Image.Clone(), Delay: f.Delay}
		}
		out.Groups[i] = SizeGroup{Size: g.Size, Frames: frames}
	}
	return out
}
