// Package ico decodes the Windows ICO/CUR container.
//
// A CUR file is an ICO directory whose entries carry a hotspot in place of
// the color count and plane fields. Every entry is one resolution of the same
// pose, so a decoded CUR is a static cursor with one size group per entry.
package ico

import (
	"bytes"
	"encoding/binary"
	"image"
	"sort"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/raster"
)

type Type uint16

const (
	TypeIcon   Type = 1
	TypeCursor Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeIcon:
		return "Type(Icon)"
	case TypeCursor:
		return "Type(Cursor)"
	}
	return "Type(UNKNOWN)"
}

const (
	headerSize = 6
	entrySize  = 16
)

type header struct {
	Reserved uint16
	Type     Type
	Count    uint16
}

type rawEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Field4     uint16 // planes, or hotspot x
	Field6     uint16 // bit count, or hotspot y
	Size       uint32
	Offset     uint32
}

// Variant holds the directory fields whose meaning depends on the container
// type: an IconVariant or a CursorVariant.
type Variant interface {
	variant()
}

type IconVariant struct {
	ColorCount uint8
	Planes     uint16
	BitCount   uint16
}

type CursorVariant struct {
	HotspotX uint16
	HotspotY uint16
}

func (IconVariant) variant()   {}
func (CursorVariant) variant() {}

// Entry is one directory entry. Width and Height are the declared values,
// with the on-disk 0 already expanded to 256.
type Entry struct {
	Width   int
	Height  int
	Size    uint32
	Offset  uint32
	Variant Variant
}

// NominalSize is the size the entry declares for itself.
func (e Entry) NominalSize() int {
	if e.Width > e.Height {
		return e.Width
	}
	return e.Height
}

func (e Entry) Hotspot() image.Point {
	if c, ok := e.Variant.(CursorVariant); ok {
		return image.Pt(int(c.HotspotX), int(c.HotspotY))
	}
	return image.Point{}
}

type Dir struct {
	Type    Type
	Entries []Entry

	data []byte
}

func declared(v uint8) int {
	if v == 0 {
		return 256
	}
	return int(v)
}

// Parse reads the directory of an ICO or CUR file. Entry data is validated
// against the buffer bounds but not decoded.
func Parse(b []byte) (*Dir, error) {
	if len(b) < headerSize {
		return nil, errkind.Errorf(errkind.MalformedContainer, "truncated header: %d bytes", len(b))
	}

	r := bytes.NewReader(b)
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errkind.Errorf(errkind.MalformedContainer, "header: %w", err)
	}
	if hdr.Reserved != 0 || (hdr.Type != TypeIcon && hdr.Type != TypeCursor) {
		return nil, errkind.Errorf(errkind.MalformedContainer, "bad magic: reserved=%d type=%d", hdr.Reserved, hdr.Type)
	}
	if hdr.Count == 0 {
		return nil, errkind.Errorf(errkind.MalformedContainer, "empty directory")
	}
	if dirEnd := headerSize + int(hdr.Count)*entrySize; dirEnd > len(b) {
		return nil, errkind.Errorf(errkind.MalformedContainer, "directory of %d entries extends beyond %d bytes", hdr.Count, len(b))
	}

	raw := make([]rawEntry, hdr.Count)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, errkind.Errorf(errkind.MalformedContainer, "directory: %w", err)
	}

	dir := &Dir{Type: hdr.Type, Entries: make([]Entry, len(raw)), data: b}
	for i, re := range raw {
		if end := uint64(re.Offset) + uint64(re.Size); re.Size == 0 || end > uint64(len(b)) {
			return nil, errkind.Errorf(errkind.MalformedContainer,
				"entry %d: data [%d, +%d) outside %d byte buffer", i, re.Offset, re.Size, len(b))
		}

		e := Entry{
			Width:  declared(re.Width),
			Height: declared(re.Height),
			Size:   re.Size,
			Offset: re.Offset,
		}
		if hdr.Type == TypeCursor {
			e.Variant = CursorVariant{HotspotX: re.Field4, HotspotY: re.Field6}
		} else {
			e.Variant = IconVariant{ColorCount: re.ColorCount, Planes: re.Field4, BitCount: re.Field6}
		}
		dir.Entries[i] = e
	}

	return dir, nil
}

func (d *Dir) entryData(i int) []byte {
	e := d.Entries[i]
	return d.data[e.Offset : e.Offset+e.Size]
}

// Image decodes entry i.
func (d *Dir) Image(i int) (*raster.Image, error) {
	img, _, err := d.decode(i)
	return img, err
}

func (d *Dir) decode(i int) (*raster.Image, int, error) {
	e := d.Entries[i]
	img, depth, err := decodeEntry(d.entryData(i))
	if err != nil {
		return nil, 0, err
	}
	img.Hotspot = e.Hotspot()
	return img, depth, nil
}

// Resolution is the best image a directory offers for one declared size.
type Resolution struct {
	Size  int
	Image *raster.Image
}

// Resolutions decodes every entry and keeps, per declared size, the one with
// the highest bit depth (then the largest stored area). The result is sorted
// by ascending size.
func (d *Dir) Resolutions() ([]Resolution, error) {
	type candidate struct {
		Resolution
		depth int
	}

	best := map[int]candidate{}
	for i := range d.Entries {
		img, depth, err := d.decode(i)
		if err != nil {
			return nil, err
		}

		size := d.Entries[i].NominalSize()
		cur, ok := best[size]
		if ok {
			if depth < cur.depth {
				continue
			}
			if depth == cur.depth && img.Width*img.Height <= cur.Image.Width*cur.Image.Height {
				continue
			}
		}
		best[size] = candidate{Resolution{Size: size, Image: img}, depth}
	}

	out := make([]Resolution, 0, len(best))
	for _, c := range best {
		out = append(out, c.Resolution)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out, nil
}

// Decode decodes a CUR (or ICO) file into a static cursor with one size group
// per declared size.
func Decode(b []byte) (*raster.Cursor, error) {
	dir, err := Parse(b)
	if err != nil {
		return nil, err
	}

	res, err := dir.Resolutions()
	if err != nil {
		return nil, err
	}

	c := &raster.Cursor{}
	for _, r := range res {
		c.Add(r.Size, raster.Frame{Image: r.Image})
	}
	return c, nil
}
