package curconv

import (
	"bytes"

	"github.com/32bitkid/curconv/ani"
	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/ico"
	"github.com/32bitkid/curconv/raster"
)

type Format uint8

const (
	FormatUnknown Format = iota
	FormatICO
	FormatCUR
	FormatANI
)

func (f Format) String() string {
	switch f {
	case FormatICO:
		return "Format(ICO)"
	case FormatCUR:
		return "Format(CUR)"
	case FormatANI:
		return "Format(ANI)"
	}
	return "Format(UNKNOWN)"
}

// Sniff identifies a container from its first bytes.
func Sniff(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, []byte("RIFF")):
		return FormatANI
	case bytes.HasPrefix(b, []byte{0, 0, 2, 0}):
		return FormatCUR
	case bytes.HasPrefix(b, []byte{0, 0, 1, 0}):
		return FormatICO
	}
	return FormatUnknown
}

type DecodeFn = func(b []byte) (*raster.Cursor, error)

type DecoderLUT map[Format]DecodeFn

var Decoders = DecoderLUT{
	FormatICO: ico.Decode,
	FormatCUR: ico.Decode,
	FormatANI: ani.Decode,
}

// Decode decodes a CUR, ICO or ANI file.
func Decode(b []byte) (*raster.Cursor, error) {
	return Decoders.Decode(b)
}

func (lut DecoderLUT) Decode(b []byte) (*raster.Cursor, error) {
	format := Sniff(b)
	decode, ok := lut[format]
	if !ok {
		return nil, errkind.Errorf(errkind.MalformedContainer, "unrecognized container (%v)", format)
	}
	return decode(b)
}
