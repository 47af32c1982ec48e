package ico

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"testing"

	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/ico/icotest"
	"github.com/32bitkid/curconv/raster"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
)

func gradient(w, h int) []color.NRGBA {
	colors := make([]color.NRGBA, w*h)
	for i := range colors {
		colors[i] = color.NRGBA{R: uint8(i), G: uint8(i * 3), B: uint8(255 - i), A: 0xff}
	}
	return colors
}

func packed(c color.NRGBA) uint32 {
	return raster.Pack(color.RGBA{
		R: raster.Premultiply(c.R, c.A),
		G: raster.Premultiply(c.G, c.A),
		B: raster.Premultiply(c.B, c.A),
		A: c.A,
	})
}

func expectKind(t *testing.T, err error, kind errkind.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

func TestParseCursorDirectory(t *testing.T) {
	img := icotest.Solid(4, 4, red)
	img.Hotspot = image.Pt(1, 2)
	dir, err := Parse(icotest.Cursor(img))
	if err != nil {
		t.Fatal(err)
	}
	if dir.Type != TypeCursor || len(dir.Entries) != 1 {
		t.Fatalf("unexpected directory %v %d", dir.Type, len(dir.Entries))
	}
	v, ok := dir.Entries[0].Variant.(CursorVariant)
	if !ok {
		t.Fatalf("expected CursorVariant, got %T", dir.Entries[0].Variant)
	}
	if v.HotspotX != 1 || v.HotspotY != 2 {
		t.Fatalf("unexpected hotspot %+v", v)
	}

	decoded, err := dir.Image(0)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Hotspot != image.Pt(1, 2) {
		t.Fatalf("unexpected hotspot %v", decoded.Hotspot)
	}
}

func TestParseIconDirectory(t *testing.T) {
	dir, err := Parse(icotest.Icon(icotest.Solid(2, 2, red)))
	if err != nil {
		t.Fatal(err)
	}
	v, ok := dir.Entries[0].Variant.(IconVariant)
	if !ok {
		t.Fatalf("expected IconVariant, got %T", dir.Entries[0].Variant)
	}
	if v.BitCount != 32 {
		t.Fatalf("unexpected bit count %d", v.BitCount)
	}
	if hs := dir.Entries[0].Hotspot(); hs != (image.Point{}) {
		t.Fatalf("unexpected icon hotspot %v", hs)
	}
}

func TestDeclaredSizeFanOut(t *testing.T) {
	// stored dimensions deliberately disagree with the declared sizes
	a := icotest.Solid(15, 15, red)
	a.Declared = 16
	b := icotest.Solid(20, 24, green)
	b.Declared = 24
	c := icotest.Solid(32, 32, blue)
	c.Declared = 0

	cur, err := Decode(icotest.Cursor(a, b, c))
	if err != nil {
		t.Fatal(err)
	}
	if cur.Animated {
		t.Fatal("CUR must decode as static")
	}
	want := []int{16, 24, 32}
	sizes := cur.Sizes()
	if len(sizes) != len(want) {
		t.Fatalf("expected sizes %v, got %v", want, sizes)
	}
	for i, g := range cur.Groups {
		if g.Size != want[i] {
			t.Fatalf("expected sizes %v, got %v", want, sizes)
		}
		if len(g.Frames) != 1 {
			t.Fatalf("size %d: expected 1 frame, got %d", g.Size, len(g.Frames))
		}
	}
	if g, _ := cur.Group(24); g.Frames[0].Image.Width != 20 || g.Frames[0].Image.Height != 24 {
		t.Fatal("stored dimensions should be kept")
	}
}

func TestDeclared256(t *testing.T) {
	img := icotest.Solid(1, 1, red)
	img.Declared = 256
	dir, err := Parse(icotest.Cursor(img))
	if err != nil {
		t.Fatal(err)
	}
	if dir.Entries[0].NominalSize() != 256 {
		t.Fatalf("expected 256, got %d", dir.Entries[0].NominalSize())
	}
}

func TestBestFidelityPerSize(t *testing.T) {
	low := icotest.Image{
		Width: 2, Height: 2, BitCount: 1,
		Palette: []color.RGBA{{A: 0xff}, {R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		Indices: []uint8{0, 0, 0, 0},
	}
	high := icotest.Solid(2, 2, green)
	cur, err := Decode(icotest.Cursor(low, high))
	if err != nil {
		t.Fatal(err)
	}
	if len(cur.Groups) != 1 {
		t.Fatalf("expected a single size, got %v", cur.Sizes())
	}
	if p := cur.Groups[0].Frames[0].Image.Pix[0]; p != packed(green) {
		t.Fatalf("expected 32bpp entry to win, got %08x", p)
	}
}

func TestNegativeHeightMatchesReversedRows(t *testing.T) {
	const w, h = 3, 4
	colors := gradient(w, h)

	topDown := icotest.Image{Width: w, Height: h, BitCount: 32, Colors: colors, TopDown: true}
	a, err := Decode(icotest.Cursor(topDown))
	if err != nil {
		t.Fatal(err)
	}

	// encode the same logical image bottom-up with rows written manually
	// reversed, then flip the expectation back
	reversed := make([]color.NRGBA, 0, w*h)
	for y := h - 1; y >= 0; y-- {
		reversed = append(reversed, colors[y*w:(y+1)*w]...)
	}
	bottomUp := icotest.Image{Width: w, Height: h, BitCount: 32, Colors: reversed}
	b, err := Decode(icotest.Cursor(bottomUp))
	if err != nil {
		t.Fatal(err)
	}

	pa := a.Groups[0].Frames[0].Image.Pix
	pb := b.Groups[0].Frames[0].Image.Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if pa[y*w+x] != pb[(h-1-y)*w+x] {
				t.Fatalf("pixel (%d,%d) mismatch: %08x != %08x", x, y, pa[y*w+x], pb[(h-1-y)*w+x])
			}
			if pa[y*w+x] != packed(colors[y*w+x]) {
				t.Fatalf("pixel (%d,%d) not in canonical order", x, y)
			}
		}
	}
}

func TestPixelFormats(t *testing.T) {
	pal := []color.RGBA{
		{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
		{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		{R: 0xff, G: 0x00, B: 0x00, A: 0xff},
		{R: 0x00, G: 0x00, B: 0xff, A: 0xff},
	}
	mask := []bool{false, true, false, false, false, false, true, false}

	cases := []struct {
		name string
		img  icotest.Image
		want []uint32
	}{
		{
			name: "1bpp",
			img: icotest.Image{Width: 4, Height: 2, BitCount: 1, Palette: pal[:2],
				Indices: []uint8{0, 1, 1, 0, 1, 0, 0, 1}, Mask: mask},
			want: []uint32{0xff000000, 0, 0xffffffff, 0xff000000, 0xffffffff, 0xff000000, 0, 0xffffffff},
		},
		{
			name: "4bpp",
			img: icotest.Image{Width: 4, Height: 2, BitCount: 4, Palette: pal,
				Indices: []uint8{2, 3, 1, 0, 0, 1, 3, 2}, Mask: mask},
			want: []uint32{0xffff0000, 0, 0xffffffff, 0xff000000, 0xff000000, 0xffffffff, 0, 0xffff0000},
		},
		{
			name: "8bpp",
			img: icotest.Image{Width: 4, Height: 2, BitCount: 8, Palette: pal,
				Indices: []uint8{3, 3, 2, 2, 1, 1, 0, 0}},
			want: []uint32{0xff0000ff, 0xff0000ff, 0xffff0000, 0xffff0000, 0xffffffff, 0xffffffff, 0xff000000, 0xff000000},
		},
		{
			name: "24bpp",
			img: icotest.Image{Width: 4, Height: 2, BitCount: 24,
				Colors: []color.NRGBA{red, green, blue, red, green, blue, red, green}, Mask: mask},
			want: []uint32{0xffff0000, 0, 0xff0000ff, 0xffff0000, 0xff00ff00, 0xff0000ff, 0, 0xff00ff00},
		},
		{
			name: "32bpp alpha",
			img: icotest.Image{Width: 2, Height: 1, BitCount: 32,
				Colors: []color.NRGBA{{R: 0xff, G: 0x80, A: 0x80}, {B: 0xff, A: 0}},
				Mask:   []bool{true, false}},
			want: []uint32{0x80804000, 0},
		},
		{
			name: "32bpp without alpha uses mask",
			img: icotest.Image{Width: 2, Height: 1, BitCount: 32,
				Colors: []color.NRGBA{{R: 0xff}, {B: 0xff}},
				Mask:   []bool{true, false}},
			want: []uint32{0, 0xff0000ff},
		},
		{
			name: "png",
			img: icotest.Image{Width: 2, Height: 1, PNG: true,
				Colors: []color.NRGBA{{R: 0xff, A: 0xff}, {G: 0xff, A: 0x40}}},
			want: []uint32{0xffff0000, 0x40004000},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir, err := Parse(icotest.Cursor(tc.img))
			if err != nil {
				t.Fatal(err)
			}
			img, err := dir.Image(0)
			if err != nil {
				t.Fatal(err)
			}
			if len(img.Pix) != len(tc.want) {
				t.Fatalf("expected %d pixels, got %d", len(tc.want), len(img.Pix))
			}
			for i := range tc.want {
				if img.Pix[i] != tc.want[i] {
					t.Errorf("%d: expected(%08x) != actual(%08x)", i, tc.want[i], img.Pix[i])
				}
			}
		})
	}
}

// hugePNG is a cursor whose PNG entry declares a 0x8000 pixel wide image.
// The IHDR checksum is kept valid.
func hugePNG() []byte {
	img := icotest.Solid(2, 2, red)
	img.PNG = true
	b := icotest.Cursor(img)

	const ihdr = 6 + 16 + 12
	binary.BigEndian.PutUint32(b[ihdr+4:], 0x8000)
	binary.BigEndian.PutUint32(b[ihdr+17:], crc32.ChecksumIEEE(b[ihdr:ihdr+17]))
	return b
}

func TestMalformed(t *testing.T) {
	valid := icotest.Cursor(icotest.Solid(2, 2, red))

	patch := func(b []byte, off int, v uint32) []byte {
		out := append([]byte(nil), b...)
		binary.LittleEndian.PutUint32(out[off:], v)
		return out
	}
	const dib = 6 + 16

	cases := []struct {
		name string
		data []byte
		kind errkind.Kind
	}{
		{"short", []byte{0, 0, 2}, errkind.MalformedContainer},
		{"bad magic", []byte{1, 0, 2, 0, 1, 0}, errkind.MalformedContainer},
		{"bad type", []byte{0, 0, 3, 0, 1, 0}, errkind.MalformedContainer},
		{"empty", []byte{0, 0, 2, 0, 0, 0}, errkind.MalformedContainer},
		{"truncated directory", []byte{0, 0, 2, 0, 2, 0, 1, 2, 3}, errkind.MalformedContainer},
		{"offset beyond buffer", patch(valid, 6+12, uint32(len(valid)+10)), errkind.MalformedContainer},
		{"size beyond buffer", patch(valid, 6+8, uint32(len(valid))), errkind.MalformedContainer},
		{"negative width", patch(valid, dib+4, 0xfffffffe), errkind.UnsupportedFeature},
		{"zero width", patch(valid, dib+4, 0), errkind.MalformedContainer},
		{"zero height", patch(valid, dib+8, 0), errkind.MalformedContainer},
		{"rle8", patch(valid, dib+16, 1), errkind.UnsupportedFeature},
		{"rle4", patch(valid, dib+16, 2), errkind.UnsupportedFeature},
		{"bitfields", patch(valid, dib+16, 3), errkind.MalformedContainer},
		{"bit depth", patch(valid, dib+12, 16<<16|1), errkind.MalformedContainer},
		{"small header", patch(valid, dib, 12), errkind.MalformedContainer},
		{"truncated pixels", valid[:dib+40+4], errkind.MalformedContainer},
		{"huge width", patch(valid, dib+4, 0x7fffffff), errkind.MalformedContainer},
		{"huge height", patch(valid, dib+8, 2*0x3fffffff), errkind.MalformedContainer},
		{"dimensions beyond data", patch(valid, dib+4, 0x1000), errkind.MalformedContainer},
		{"huge png", hugePNG(), errkind.MalformedContainer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			expectKind(t, err, tc.kind)
		})
	}
}

func TestTruncatedMask(t *testing.T) {
	img := icotest.Image{Width: 2, Height: 2, BitCount: 24, Colors: []color.NRGBA{red, red, red, red}}
	data := icotest.Cursor(img)
	// drop the AND mask and shrink the entry to match
	data = data[:len(data)-8]
	binary.LittleEndian.PutUint32(data[6+8:], uint32(len(data)-22))
	_, err := Decode(data)
	expectKind(t, err, errkind.MalformedContainer)
}
