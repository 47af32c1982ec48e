package ico

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"

	"github.com/32bitkid/bitreader"
	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/raster"
	xdraw "golang.org/x/image/draw"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// maxDimension is the largest width or height a cursor file can carry.
const maxDimension = 0x7fff

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32 // XOR and AND planes combined; negative for top-down rows
	Planes        uint16
	BitCount      uint16
	Compression   Compression
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

const bitmapInfoHeaderSize = 40

// decodeEntry decodes the image data of one directory entry and reports its
// effective bit depth.
func decodeEntry(data []byte) (*raster.Image, int, error) {
	if bytes.HasPrefix(data, pngMagic) {
		img, err := decodePNG(data)
		return img, 32, err
	}
	return decodeDIB(data)
}

func decodePNG(data []byte) (*raster.Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errkind.Errorf(errkind.MalformedContainer, "png entry: %w", err)
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, errkind.Errorf(errkind.MalformedContainer, "png entry: %dx%d exceeds %d", cfg.Width, cfg.Height, maxDimension)
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errkind.Errorf(errkind.MalformedContainer, "png entry: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, errkind.Errorf(errkind.MalformedContainer, "png entry: zero dimensions")
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return raster.FromRGBA(dst, image.Point{}), nil
}

type bitmap struct {
	bitmapInfoHeader
	width, height int
	topDown       bool
	palette       []color.RGBA
}

func rowStride(width, bpp int) int {
	return ((width*bpp + 31) / 32) * 4
}

func decodeDIB(data []byte) (*raster.Image, int, error) {
	var bm bitmap
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &bm.bitmapInfoHeader); err != nil {
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "bitmap header: %w", err)
	}
	if bm.Size < bitmapInfoHeaderSize || int(bm.Size) > len(data) {
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "bitmap header size %d", bm.Size)
	}

	switch {
	case bm.Width < 0:
		return nil, 0, errkind.Errorf(errkind.UnsupportedFeature, "negative bitmap width %d", bm.Width)
	case bm.Width == 0 || bm.Height == 0 || bm.Height == 1 || bm.Height == -1:
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "zero bitmap dimensions %dx%d", bm.Width, bm.Height/2)
	}
	bm.width = int(bm.Width)
	bm.height = int(bm.Height) / 2
	if bm.Height < 0 {
		bm.height = -bm.height
		bm.topDown = true
	}
	if bm.width > maxDimension || bm.height > maxDimension {
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "bitmap %dx%d exceeds %d", bm.width, bm.height, maxDimension)
	}

	bpp := int(bm.BitCount)
	switch bpp {
	case 1, 4, 8, 24, 32:
	default:
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "unsupported bit depth %d", bpp)
	}

	decompress, ok := Decompressors[bm.Compression]
	if !ok {
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "unhandled compression type: %v", bm.Compression)
	}

	offset := int(bm.Size)
	if bpp <= 8 {
		n := 1 << bpp
		if bm.ClrUsed != 0 && int(bm.ClrUsed) < n {
			n = int(bm.ClrUsed)
		}
		end := offset + n*4
		if end > len(data) {
			return nil, 0, errkind.Errorf(errkind.MalformedContainer, "truncated palette of %d colors", n)
		}
		bm.palette = make([]color.RGBA, n)
		for i := range bm.palette {
			q := data[offset+i*4:]
			bm.palette[i] = color.RGBA{R: q[2], G: q[1], B: q[0], A: 0xff}
		}
		offset = end
	}

	xorStride := rowStride(bm.width, bpp)
	if bm.Compression == CompressionNone && offset+xorStride*bm.height > len(data) {
		return nil, 0, errkind.Errorf(errkind.MalformedContainer, "truncated pixel data: need %d bytes, have %d", xorStride*bm.height, len(data)-offset)
	}
	xor := make([]byte, xorStride*bm.height)
	if err := decompress(data[offset:], xor); err != nil {
		return nil, 0, err
	}
	offset += len(xor)

	img := raster.New(bm.width, bm.height)
	alpha, err := bm.decodeColors(img, xor, xorStride)
	if err != nil {
		return nil, 0, err
	}
	if !alpha {
		if err := bm.applyMask(img, data[offset:]); err != nil {
			return nil, 0, err
		}
	}

	return img, bpp, nil
}

// dstRow maps a stored row index to a top-to-bottom image row.
func (bm *bitmap) dstRow(stored int) int {
	if bm.topDown {
		return stored
	}
	return bm.height - 1 - stored
}

// decodeColors fills img with straight colors from the XOR plane, already
// premultiplied when the plane carries alpha. It reports whether it did.
func (bm *bitmap) decodeColors(img *raster.Image, xor []byte, stride int) (bool, error) {
	bpp := int(bm.BitCount)

	if bpp == 32 {
		hasAlpha := false
		for i := 3; i < len(xor); i += 4 {
			if xor[i] != 0 {
				hasAlpha = true
				break
			}
		}
		for r := 0; r < bm.height; r++ {
			row := xor[r*stride:]
			out := img.Pix[bm.dstRow(r)*bm.width:]
			for x := 0; x < bm.width; x++ {
				b, g, rd, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
				if !hasAlpha {
					a = 0xff
				}
				out[x] = raster.Pack(color.RGBA{
					R: raster.Premultiply(rd, a),
					G: raster.Premultiply(g, a),
					B: raster.Premultiply(b, a),
					A: a,
				})
			}
		}
		return hasAlpha, nil
	}

	if bpp == 24 {
		for r := 0; r < bm.height; r++ {
			row := xor[r*stride:]
			out := img.Pix[bm.dstRow(r)*bm.width:]
			for x := 0; x < bm.width; x++ {
				out[x] = raster.Pack(color.RGBA{R: row[x*3+2], G: row[x*3+1], B: row[x*3], A: 0xff})
			}
		}
		return false, nil
	}

	for r := 0; r < bm.height; r++ {
		br := bitreader.NewReader(bytes.NewReader(xor[r*stride : (r+1)*stride]))
		out := img.Pix[bm.dstRow(r)*bm.width:]
		for x := 0; x < bm.width; x++ {
			idx, err := br.Read8(uint(bpp))
			if err != nil {
				return false, errkind.Errorf(errkind.MalformedContainer, "row %d: %w", r, err)
			}
			if int(idx) >= len(bm.palette) {
				return false, errkind.Errorf(errkind.MalformedContainer, "palette index %d out of range %d", idx, len(bm.palette))
			}
			out[x] = raster.Pack(bm.palette[idx])
		}
	}
	return false, nil
}

// applyMask clears every pixel whose AND mask bit is set.
func (bm *bitmap) applyMask(img *raster.Image, mask []byte) error {
	stride := rowStride(bm.width, 1)
	if len(mask) < stride*bm.height {
		return errkind.Errorf(errkind.MalformedContainer, "truncated AND mask: need %d bytes, have %d", stride*bm.height, len(mask))
	}

	for r := 0; r < bm.height; r++ {
		br := bitreader.NewReader(bytes.NewReader(mask[r*stride : (r+1)*stride]))
		out := img.Pix[bm.dstRow(r)*bm.width:]
		for x := 0; x < bm.width; x++ {
			transparent, err := br.Read1()
			if err != nil {
				return errkind.Errorf(errkind.MalformedContainer, "mask row %d: %w", r, err)
			}
			if transparent {
				out[x] = 0
			}
		}
	}
	return nil
}
