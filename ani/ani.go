// Package ani decodes animated Windows cursors.
//
// An ANI file is a RIFF form of type "ACON". Its frames are complete CUR
// files stored as "icon" chunks in a "fram" list; an optional "seq " chunk
// reorders or repeats them and an optional "rate" chunk gives each step its
// own display time in jiffies (1/60 s).
package ani

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/ico"
	"github.com/32bitkid/curconv/raster"
	"golang.org/x/image/riff"
)

var (
	fccRIFF = riff.FourCC{'R', 'I', 'F', 'F'}
	fccACON = riff.FourCC{'A', 'C', 'O', 'N'}
	fccANIH = riff.FourCC{'a', 'n', 'i', 'h'}
	fccRATE = riff.FourCC{'r', 'a', 't', 'e'}
	fccSEQ  = riff.FourCC{'s', 'e', 'q', ' '}
	fccINFO = riff.FourCC{'I', 'N', 'F', 'O'}
	fccINAM = riff.FourCC{'I', 'N', 'A', 'M'}
	fccIART = riff.FourCC{'I', 'A', 'R', 'T'}
	fccFRAM = riff.FourCC{'f', 'r', 'a', 'm'}
	fccICON = riff.FourCC{'i', 'c', 'o', 'n'}
)

type Flags uint32

const (
	FlagIcon     Flags = 1 << 0 // frames are ICO/CUR data rather than raw bitmaps
	FlagSequence Flags = 1 << 1 // a "seq " chunk is present
)

const headerSize = 36

// Header is the "anih" chunk.
type Header struct {
	Size      uint32
	Frames    uint32
	Steps     uint32
	Width     uint32
	Height    uint32
	BitCount  uint32
	Planes    uint32
	JiffyRate uint32
	Flags     Flags
}

// File is a parsed ANI container. Icons hold the undecoded CUR data of each
// frame.
type File struct {
	Header   Header
	Title    string
	Author   string
	Rate     []uint32
	Sequence []uint32
	Icons    [][]byte

	seenHeader bool
	seenInfo   bool
}

// Parse reads the chunks of an ANI file and checks that they agree with each
// other. Chunks may appear in any order; unknown chunks are skipped.
func Parse(b []byte) (*File, error) {
	if len(b) < 12 || !bytes.Equal(b[:4], fccRIFF[:]) {
		return nil, errkind.Errorf(errkind.MalformedContainer, "missing RIFF header")
	}
	size := binary.LittleEndian.Uint32(b[4:])
	if uint64(size) > uint64(len(b)) {
		return nil, errkind.Errorf(errkind.MalformedContainer, "RIFF size %d extends beyond %d bytes", size, len(b))
	}
	// Some writers count the RIFF header in the size; trust the buffer instead.
	if avail := uint32(len(b) - 8); size > avail {
		size = avail
	}

	form, chunks, err := riff.NewListReader(size, bytes.NewReader(b[8:]))
	if err != nil {
		return nil, errkind.Errorf(errkind.MalformedContainer, "RIFF: %w", err)
	}
	if form != fccACON {
		return nil, errkind.Errorf(errkind.MalformedContainer, "RIFF form %q is not ACON", form[:])
	}

	f := &File{}
	if err := f.readChunks(chunks); err != nil {
		return nil, err
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}

func malformed(err error) error {
	return errkind.Errorf(errkind.MalformedContainer, "%w", err)
}

func (f *File) readChunks(r *riff.Reader) error {
	for {
		id, n, data, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return malformed(err)
		}

		switch id {
		case fccANIH:
			if f.seenHeader {
				return errkind.Errorf(errkind.MalformedContainer, "duplicate anih chunk")
			}
			if n != headerSize {
				return errkind.Errorf(errkind.MalformedContainer, "anih chunk is %d bytes, want %d", n, headerSize)
			}
			if err := binary.Read(data, binary.LittleEndian, &f.Header); err != nil {
				return malformed(err)
			}
			if f.Header.Size != headerSize {
				return errkind.Errorf(errkind.MalformedContainer, "anih declares size %d", f.Header.Size)
			}
			f.seenHeader = true

		case fccRATE, fccSEQ:
			dst := &f.Rate
			if id == fccSEQ {
				dst = &f.Sequence
			}
			if *dst != nil {
				return errkind.Errorf(errkind.MalformedContainer, "duplicate %q chunk", id[:])
			}
			v, err := readUint32s(id, n, data)
			if err != nil {
				return err
			}
			*dst = v

		case riff.LIST:
			typ, list, err := riff.NewListReader(n, data)
			if err != nil {
				return malformed(err)
			}
			switch typ {
			case fccINFO:
				if f.seenInfo {
					return errkind.Errorf(errkind.MalformedContainer, "duplicate INFO list")
				}
				f.seenInfo = true
				if err := f.readInfo(list); err != nil {
					return err
				}
			case fccFRAM:
				if f.Icons != nil {
					return errkind.Errorf(errkind.MalformedContainer, "duplicate fram list")
				}
				if err := f.readFrames(list); err != nil {
					return err
				}
			}
		}
	}
}

func readUint32s(id riff.FourCC, n uint32, data io.Reader) ([]uint32, error) {
	if n%4 != 0 {
		return nil, errkind.Errorf(errkind.MalformedContainer, "%q chunk length %d is not a multiple of 4", id[:], n)
	}
	v := make([]uint32, n/4)
	if err := binary.Read(data, binary.LittleEndian, v); err != nil {
		return nil, malformed(err)
	}
	return v, nil
}

func (f *File) readInfo(r *riff.Reader) error {
	for {
		id, _, data, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return malformed(err)
		}

		var dst *string
		switch id {
		case fccINAM:
			dst = &f.Title
		case fccIART:
			dst = &f.Author
		default:
			continue
		}
		if *dst != "" {
			return errkind.Errorf(errkind.MalformedContainer, "duplicate %q subchunk", id[:])
		}
		s, err := io.ReadAll(data)
		if err != nil {
			return malformed(err)
		}
		if i := bytes.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		*dst = string(s)
	}
}

func (f *File) readFrames(r *riff.Reader) error {
	f.Icons = [][]byte{}
	for {
		id, _, data, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return malformed(err)
		}
		if id != fccICON {
			return errkind.Errorf(errkind.MalformedContainer, "unexpected %q subchunk in fram list", id[:])
		}
		icon, err := io.ReadAll(data)
		if err != nil {
			return malformed(err)
		}
		f.Icons = append(f.Icons, icon)
	}
}

func (f *File) check() error {
	h := &f.Header
	switch {
	case !f.seenHeader:
		return errkind.Errorf(errkind.MalformedContainer, "missing anih chunk")
	case h.Flags&FlagIcon == 0:
		return errkind.Errorf(errkind.UnsupportedFeature, "raw bitmap frames (flags %#x)", uint32(h.Flags))
	case f.Icons == nil:
		return errkind.Errorf(errkind.MalformedContainer, "missing fram list")
	case h.Frames == 0:
		return errkind.Errorf(errkind.MalformedContainer, "anih declares no frames")
	case int(h.Frames) != len(f.Icons):
		return errkind.Errorf(errkind.MalformedContainer, "anih declares %d frames, fram list has %d", h.Frames, len(f.Icons))
	}

	for i, idx := range f.Sequence {
		if idx >= h.Frames {
			return errkind.Errorf(errkind.MalformedContainer, "seq step %d: frame %d out of range %d", i, idx, h.Frames)
		}
	}
	if f.Sequence != nil && len(f.Sequence) == 0 {
		return errkind.Errorf(errkind.MalformedContainer, "empty seq chunk")
	}
	if f.Rate != nil && len(f.Rate) != f.Steps() {
		return errkind.Errorf(errkind.MalformedContainer, "rate has %d entries for %d steps", len(f.Rate), f.Steps())
	}
	return nil
}

// Steps is the playback length: the sequence length if there is one,
// otherwise the number of frames.
func (f *File) Steps() int {
	if f.Sequence != nil {
		return len(f.Sequence)
	}
	return int(f.Header.Frames)
}

// Order returns the icon index shown at each playback step.
func (f *File) Order() []int {
	order := make([]int, f.Steps())
	for i := range order {
		if f.Sequence != nil {
			order[i] = int(f.Sequence[i])
		} else {
			order[i] = i
		}
	}
	return order
}

// JiffiesToMillis converts a display time in 1/60 s units, rounding down.
func JiffiesToMillis(j uint32) uint32 {
	return uint32(uint64(j) * 1000 / 60)
}

// Delays returns the display time of each playback step in milliseconds.
// Steps without a rate entry use the header's default rate.
func (f *File) Delays() []uint32 {
	delays := make([]uint32, f.Steps())
	for i := range delays {
		j := f.Header.JiffyRate
		if f.Rate != nil {
			j = f.Rate[i]
		}
		delays[i] = JiffiesToMillis(j)
	}
	return delays
}

// Decode decodes an ANI file into an animated cursor.
//
// Every icon is decoded first; the sequence is then expanded into one frame
// list per size. A size offered by only some icons gets a shorter list made
// of the steps whose icon has it.
func Decode(b []byte) (*raster.Cursor, error) {
	f, err := Parse(b)
	if err != nil {
		return nil, err
	}

	icons := make([]*raster.Cursor, len(f.Icons))
	for i, data := range f.Icons {
		c, err := ico.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		icons[i] = c
	}

	delays := f.Delays()
	out := &raster.Cursor{Animated: true}
	for step, idx := range f.Order() {
		for _, g := range icons[idx].Groups {
			out.Add(g.Size, raster.Frame{Image: g.Frames[0].Image, Delay: delays[step]})
		}
	}
	return out, nil
}
