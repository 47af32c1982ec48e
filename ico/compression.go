package ico

import (
	"github.com/32bitkid/curconv/errkind"
)

type Compression uint32

const (
	CompressionNone      Compression = 0
	CompressionRLE8      Compression = 1
	CompressionRLE4      Compression = 2
	CompressionBitfields Compression = 3
	CompressionJPEG      Compression = 4
	CompressionPNG       Compression = 5
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "Compression(None)"
	case CompressionRLE8:
		return "Compression(RLE8)"
	case CompressionRLE4:
		return "Compression(RLE4)"
	case CompressionBitfields:
		return "Compression(Bitfields)"
	case CompressionJPEG:
		return "Compression(JPEG)"
	case CompressionPNG:
		return "Compression(PNG)"
	}
	return "Compression(UNKNOWN)"
}

// DecompressionFn fills dst with the uncompressed color plane read from src.
type DecompressionFn = func(src, dst []byte) error

type DecompressorLUT map[Compression]DecompressionFn

func DecompressNone(src, dst []byte) error {
	if len(src) < len(dst) {
		return errkind.Errorf(errkind.MalformedContainer, "truncated pixel data: need %d bytes, have %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func DecompressRLE(src, dst []byte) error {
	return errkind.Errorf(errkind.UnsupportedFeature, "run-length encoded bitmap")
}

var Decompressors = DecompressorLUT{
	CompressionNone: DecompressNone,
	CompressionRLE8: DecompressRLE,
	CompressionRLE4: DecompressRLE,
}
