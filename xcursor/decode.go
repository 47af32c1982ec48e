package xcursor

import (
	"encoding/binary"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/raster"
)

type decoder struct {
	b   []byte
	off int
}

type decoderError struct {
	err error
}

func (d *decoder) throw(format string, args ...interface{}) {
	panic(decoderError{errkind.Errorf(errkind.MalformedContainer, format, args...)})
}

func (d *decoder) catch(err *error) {
	switch r := recover().(type) {
	case nil:
	case decoderError:
		*err = r.err
	default:
		panic(r)
	}
}

func (d *decoder) seek(pos uint64) {
	if pos > uint64(len(d.b)) {
		d.throw("position %d beyond %d bytes", pos, len(d.b))
	}
	d.off = int(pos)
}

func (d *decoder) uint32() uint32 {
	if d.off+4 > len(d.b) {
		d.throw("truncated at offset %d", d.off)
	}
	v := binary.LittleEndian.Uint32(d.b[d.off:])
	d.off += 4
	return v
}

func (d *decoder) bytes(n uint32) []byte {
	if uint64(d.off)+uint64(n) > uint64(len(d.b)) {
		d.throw("%d bytes at offset %d exceed %d byte file", n, d.off, len(d.b))
	}
	v := d.b[d.off : d.off+int(n)]
	d.off += int(n)
	return v
}

// Decode reads a cursor file. Table of contents entries of unknown type are
// ignored.
func Decode(b []byte) (*File, error) {
	d := &decoder{b: b}
	f, err := d.decode()
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (d *decoder) decode() (f *File, err error) {
	defer d.catch(&err)
	b := d.b

	if string(d.bytes(4)) != magic {
		d.throw("bad magic")
	}
	hdrLen := d.uint32()
	if hdrLen < fileHeaderLen {
		d.throw("header size %d", hdrLen)
	}
	d.uint32() // version
	ntoc := d.uint32()
	d.seek(uint64(hdrLen))
	if uint64(ntoc)*tocEntryLen > uint64(len(b)-d.off) {
		d.throw("table of contents of %d entries exceeds file", ntoc)
	}

	toc := make([]tocEntry, ntoc)
	for i := range toc {
		toc[i] = tocEntry{typ: d.uint32(), subtype: d.uint32(), position: d.uint32()}
	}

	f = &File{}
	for i, e := range toc {
		switch e.typ {
		case typeComment:
			f.Comments = append(f.Comments, d.comment(i, e))
		case typeImage:
			f.Images = append(f.Images, d.image(i, e))
		}
	}
	return f, nil
}

// chunkHeader checks the common chunk header against its table entry and
// returns where the chunk body starts. The decoder is left on the first
// chunk-specific field.
func (d *decoder) chunkHeader(i int, e tocEntry, minLen uint32) uint64 {
	d.seek(uint64(e.position))
	hdrLen := d.uint32()
	typ, subtype := d.uint32(), d.uint32()
	d.uint32() // version
	if typ != e.typ || subtype != e.subtype {
		d.throw("chunk %d: header %#x/%d disagrees with table %#x/%d", i, typ, subtype, e.typ, e.subtype)
	}
	if hdrLen < minLen {
		d.throw("chunk %d: header size %d", i, hdrLen)
	}
	return uint64(e.position) + uint64(hdrLen)
}

func (d *decoder) comment(i int, e tocEntry) Comment {
	body := d.chunkHeader(i, e, commentHeaderLen)
	n := d.uint32()
	d.seek(body)
	return Comment{Kind: CommentKind(e.subtype), Text: string(d.bytes(n))}
}

func (d *decoder) image(i int, e tocEntry) Image {
	body := d.chunkHeader(i, e, imageHeaderLen)
	w, h := d.uint32(), d.uint32()
	xhot, yhot := d.uint32(), d.uint32()
	delay := d.uint32()
	if w == 0 || h == 0 || w > MaxDimension || h > MaxDimension {
		d.throw("chunk %d: image dimensions %dx%d", i, w, h)
	}
	d.seek(body)
	pix := d.bytes(w * h * 4)

	img := raster.New(int(w), int(h))
	img.Hotspot.X, img.Hotspot.Y = int(xhot), int(yhot)
	for j := range img.Pix {
		img.Pix[j] = binary.LittleEndian.Uint32(pix[j*4:])
	}
	return Image{Size: int(e.subtype), Delay: delay, Image: img}
}
