// Package icotest builds small ICO/CUR files for tests.
package icotest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
)

// Image describes one directory entry.
//
// Colors are straight (not premultiplied). Depths 24 and 32 read Colors;
// paletted depths read Indices and Palette. Mask bits set to true are
// transparent.
type Image struct {
	Width, Height int

	// Declared overrides the size written to the directory. Zero means Width.
	Declared int
	Hotspot  image.Point

	BitCount    int
	Colors      []color.NRGBA
	Palette     []color.RGBA
	Indices     []uint8
	Mask        []bool
	TopDown     bool
	Compression uint32

	// PNG stores Colors as a PNG stream instead of a DIB.
	PNG bool
}

// Solid returns a 32bpp image filled with c.
func Solid(w, h int, c color.NRGBA) Image {
	colors := make([]color.NRGBA, w*h)
	for i := range colors {
		colors[i] = c
	}
	return Image{Width: w, Height: h, BitCount: 32, Colors: colors}
}

// Cursor encodes a CUR file.
func Cursor(images ...Image) []byte { return encode(2, images) }

// Icon encodes an ICO file.
func Icon(images ...Image) []byte { return encode(1, images) }

func encode(typ uint16, images []Image) []byte {
	var payloads [][]byte
	for _, img := range images {
		if img.PNG {
			payloads = append(payloads, encodePNG(img))
		} else {
			payloads = append(payloads, EncodeDIB(img))
		}
	}

	var out bytes.Buffer
	le := binary.LittleEndian
	binary.Write(&out, le, [3]uint16{0, typ, uint16(len(images))}) //nolint:errcheck

	offset := 6 + 16*len(images)
	for i, img := range images {
		size := img.Declared
		if size == 0 {
			size = img.Width
		}
		f4, f6 := uint16(1), uint16(img.BitCount)
		if typ == 2 {
			f4, f6 = uint16(img.Hotspot.X), uint16(img.Hotspot.Y)
		}
		binary.Write(&out, le, struct { //nolint:errcheck
			W, H, Colors, Reserved uint8
			F4, F6                 uint16
			Size, Offset           uint32
		}{uint8(size), uint8(size), 0, 0, f4, f6, uint32(len(payloads[i])), uint32(offset)})
		offset += len(payloads[i])
	}
	for _, p := range payloads {
		out.Write(p)
	}
	return out.Bytes()
}

func encodePNG(img Image) []byte {
	src := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, c := range img.Colors {
		src.SetNRGBA(i%img.Width, i/img.Width, c)
	}
	var buf bytes.Buffer
	png.Encode(&buf, src) //nolint:errcheck
	return buf.Bytes()
}

func stride(w, bpp int) int { return ((w*bpp + 31) / 32) * 4 }

// EncodeDIB encodes the bitmap (header, palette, XOR plane, AND mask) of img.
func EncodeDIB(img Image) []byte {
	var out bytes.Buffer
	le := binary.LittleEndian

	height := int32(img.Height * 2)
	if img.TopDown {
		height = -height
	}
	binary.Write(&out, le, struct { //nolint:errcheck
		Size          uint32
		Width, Height int32
		Planes, Bits  uint16
		Compression   uint32
		Rest          [5]uint32
	}{40, int32(img.Width), height, 1, uint16(img.BitCount), img.Compression, [5]uint32{3: uint32(len(img.Palette))}})

	for _, c := range img.Palette {
		out.Write([]byte{c.B, c.G, c.R, 0})
	}

	rows := make([]int, img.Height)
	for i := range rows {
		rows[i] = img.Height - 1 - i
		if img.TopDown {
			rows[i] = i
		}
	}

	xs := stride(img.Width, img.BitCount)
	for _, y := range rows {
		row := make([]byte, xs)
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			switch img.BitCount {
			case 32:
				c := img.Colors[i]
				copy(row[x*4:], []byte{c.B, c.G, c.R, c.A})
			case 24:
				c := img.Colors[i]
				copy(row[x*3:], []byte{c.B, c.G, c.R})
			default:
				bpp := img.BitCount
				bit := x * bpp
				row[bit/8] |= img.Indices[i] << uint(8-bpp-bit%8)
			}
		}
		out.Write(row)
	}

	ms := stride(img.Width, 1)
	for _, y := range rows {
		row := make([]byte, ms)
		for x := 0; x < img.Width; x++ {
			if img.Mask != nil && img.Mask[y*img.Width+x] {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
		out.Write(row)
	}
	return out.Bytes()
}
