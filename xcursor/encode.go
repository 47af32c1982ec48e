package xcursor

import (
	"encoding/binary"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/raster"
)

type tocEntry struct {
	typ, subtype, position uint32
}

type chunk struct {
	tocEntry
	size    int
	image   *raster.Image
	delay   uint32
	comment Comment
}

func checkImage(size int, img *raster.Image) error {
	if size <= 0 || size > MaxDimension {
		return errkind.Errorf(errkind.EncodingError, "nominal size %d out of range", size)
	}
	if img == nil {
		return errkind.Errorf(errkind.EncodingError, "size %d: missing image", size)
	}
	if img.Width <= 0 || img.Height <= 0 || img.Width > MaxDimension || img.Height > MaxDimension {
		return errkind.Errorf(errkind.EncodingError, "size %d: image dimensions %dx%d out of range", size, img.Width, img.Height)
	}
	if err := img.Validate(); err != nil {
		return errkind.Errorf(errkind.EncodingError, "size %d: %w", size, err)
	}
	return nil
}

// layout lists every chunk in file order with its final position.
func layout(c *raster.Cursor, comments []Comment) ([]chunk, int, error) {
	if len(c.Groups) == 0 {
		return nil, 0, errkind.Errorf(errkind.EncodingError, "cursor has no images")
	}

	var chunks []chunk
	for _, g := range c.Groups {
		if len(g.Frames) == 0 {
			return nil, 0, errkind.Errorf(errkind.EncodingError, "size %d: empty frame sequence", g.Size)
		}
		static := !c.Animated && len(g.Frames) == 1
		for _, f := range g.Frames {
			if err := checkImage(g.Size, f.Image); err != nil {
				return nil, 0, err
			}
			delay := f.NormalizedDelay()
			if static {
				delay = 0
			}
			chunks = append(chunks, chunk{
				tocEntry: tocEntry{typ: typeImage, subtype: uint32(g.Size)},
				size:     imageHeaderLen + 4*len(f.Image.Pix),
				image:    f.Image,
				delay:    delay,
			})
		}
	}
	for _, cm := range comments {
		chunks = append(chunks, chunk{
			tocEntry: tocEntry{typ: typeComment, subtype: uint32(cm.Kind)},
			size:     commentHeaderLen + len(cm.Text),
			comment:  cm,
		})
	}

	pos := fileHeaderLen + tocEntryLen*len(chunks)
	for i := range chunks {
		chunks[i].position = uint32(pos)
		pos += chunks[i].size
	}
	return chunks, pos, nil
}

// Encode writes c as a cursor file. Images are ordered by ascending nominal
// size, then frame order; comments follow the images. A cursor that is not
// animated is written as static images (delay 0).
func Encode(c *raster.Cursor, comments ...Comment) ([]byte, error) {
	chunks, total, err := layout(c, comments)
	if err != nil {
		return nil, err
	}

	le := binary.LittleEndian
	out := make([]byte, 0, total)
	out = append(out, magic...)
	out = le.AppendUint32(out, fileHeaderLen)
	out = le.AppendUint32(out, fileVersion)
	out = le.AppendUint32(out, uint32(len(chunks)))
	for _, ch := range chunks {
		out = le.AppendUint32(out, ch.typ)
		out = le.AppendUint32(out, ch.subtype)
		out = le.AppendUint32(out, ch.position)
	}

	for _, ch := range chunks {
		if ch.image == nil {
			out = le.AppendUint32(out, commentHeaderLen)
			out = le.AppendUint32(out, ch.typ)
			out = le.AppendUint32(out, ch.subtype)
			out = le.AppendUint32(out, chunkVersion)
			out = le.AppendUint32(out, uint32(len(ch.comment.Text)))
			out = append(out, ch.comment.Text...)
			continue
		}

		img := ch.image
		hot := img.ClampedHotspot()
		out = le.AppendUint32(out, imageHeaderLen)
		out = le.AppendUint32(out, ch.typ)
		out = le.AppendUint32(out, ch.subtype)
		out = le.AppendUint32(out, chunkVersion)
		out = le.AppendUint32(out, uint32(img.Width))
		out = le.AppendUint32(out, uint32(img.Height))
		out = le.AppendUint32(out, uint32(hot.X))
		out = le.AppendUint32(out, uint32(hot.Y))
		out = le.AppendUint32(out, ch.delay)
		for _, p := range img.Pix {
			out = le.AppendUint32(out, p)
		}
	}

	if len(out) != total {
		return nil, errkind.Errorf(errkind.EncodingError, "wrote %d bytes, laid out %d", len(out), total)
	}
	return out, nil
}
