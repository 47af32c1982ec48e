package ani

import (
	"errors"
	"image/color"
	"testing"

	"github.com/32bitkid/curconv/ani/anitest"
	"github.com/32bitkid/curconv/errkind"
	"github.com/32bitkid/curconv/ico/icotest"
	"github.com/32bitkid/curconv/raster"
)

var palette = []color.NRGBA{
	{R: 0xff, A: 0xff},
	{G: 0xff, A: 0xff},
	{B: 0xff, A: 0xff},
}

func icons(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = icotest.Cursor(icotest.Solid(2, 2, palette[i%len(palette)]))
	}
	return out
}

func colorOf(f raster.Frame) color.RGBA {
	return raster.Unpack(f.Image.Pix[0])
}

func TestSequenceOrder(t *testing.T) {
	data := anitest.ACON(
		anitest.Header(3, 4, 6, uint32(FlagIcon|FlagSequence)),
		anitest.Uint32s("seq ", 2, 0, 1, 0),
		anitest.Frames(icons(3)...),
	)

	cur, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Animated {
		t.Fatal("expected an animated cursor")
	}
	g, ok := cur.Group(2)
	if !ok {
		t.Fatalf("missing size 2, have %v", cur.Sizes())
	}

	order := []int{2, 0, 1, 0}
	if len(g.Frames) != len(order) {
		t.Fatalf("expected(%d) != actual(%d)", len(order), len(g.Frames))
	}
	for step, idx := range order {
		want := palette[idx]
		got := colorOf(g.Frames[step])
		if got.R != want.R || got.G != want.G || got.B != want.B {
			t.Errorf("step %d: expected frame %d, got %v", step, idx, got)
		}
		if g.Frames[step].Delay != 100 {
			t.Errorf("step %d: expected(100) != actual(%d)", step, g.Frames[step].Delay)
		}
	}
}

func TestRateToMillis(t *testing.T) {
	data := anitest.ACON(
		anitest.Header(3, 3, 0, uint32(FlagIcon)),
		anitest.Uint32s("rate", 10, 20, 10),
		anitest.Frames(icons(3)...),
	)

	cur, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint32{166, 333, 166}
	frames := cur.Groups[0].Frames
	for i := range want {
		if frames[i].Delay != want[i] {
			t.Errorf("step %d: expected(%d) != actual(%d)", i, want[i], frames[i].Delay)
		}
	}
}

func TestJiffiesToMillis(t *testing.T) {
	cases := map[uint32]uint32{0: 0, 1: 16, 6: 100, 10: 166, 20: 333, 60: 1000}
	for j, want := range cases {
		if got := JiffiesToMillis(j); got != want {
			t.Errorf("%d jiffies: expected(%d) != actual(%d)", j, want, got)
		}
	}
}

func TestChunkOrderInfoAndUnknown(t *testing.T) {
	data := anitest.ACON(
		anitest.Frames(icons(2)...),
		anitest.Chunk{ID: "junk", Data: []byte{1, 2, 3}},
		anitest.Info("abc", "someone"),
		anitest.Header(2, 2, 3, uint32(FlagIcon)),
	)

	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Title != "abc" || f.Author != "someone" {
		t.Fatalf("unexpected info %q %q", f.Title, f.Author)
	}
	if len(f.Icons) != 2 {
		t.Fatalf("expected(2) != actual(%d)", len(f.Icons))
	}
	if d := f.Delays(); d[0] != 50 || d[1] != 50 {
		t.Fatalf("unexpected delays %v", d)
	}
}

func TestSizeUnion(t *testing.T) {
	big := icotest.Solid(4, 4, palette[0])
	small := icotest.Solid(2, 2, palette[1])
	data := anitest.ACON(
		anitest.Header(2, 2, 6, uint32(FlagIcon)),
		anitest.Frames(
			icotest.Cursor(small, big),
			icotest.Cursor(big),
		),
	)

	cur, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if s := cur.Sizes(); len(s) != 2 || s[0] != 2 || s[1] != 4 {
		t.Fatalf("unexpected sizes %v", s)
	}
	if g, _ := cur.Group(2); len(g.Frames) != 1 {
		t.Fatalf("size 2: expected(1) != actual(%d)", len(g.Frames))
	}
	if g, _ := cur.Group(4); len(g.Frames) != 2 {
		t.Fatalf("size 4: expected(2) != actual(%d)", len(g.Frames))
	}
}

func TestMalformed(t *testing.T) {
	hdr := anitest.Header(2, 2, 6, uint32(FlagIcon))
	fram := anitest.Frames(icons(2)...)

	truncatedSize := anitest.ACON(hdr, fram)
	truncatedSize[4] = 0xff
	truncatedSize[5] = 0xff

	cases := []struct {
		name string
		data []byte
		kind errkind.Kind
	}{
		{"not riff", []byte("RIFX\x04\x00\x00\x00ACON"), errkind.MalformedContainer},
		{"short", []byte("RIFF"), errkind.MalformedContainer},
		{"size beyond buffer", truncatedSize, errkind.MalformedContainer},
		{"wrong form", anitest.RIFF("WAVE", hdr, fram), errkind.MalformedContainer},
		{"missing anih", anitest.ACON(fram), errkind.MalformedContainer},
		{"missing fram", anitest.ACON(hdr), errkind.MalformedContainer},
		{"duplicate anih", anitest.ACON(hdr, hdr, fram), errkind.MalformedContainer},
		{"duplicate fram", anitest.ACON(hdr, fram, fram), errkind.MalformedContainer},
		{"duplicate rate", anitest.ACON(hdr, anitest.Uint32s("rate", 1, 1), anitest.Uint32s("rate", 1, 1), fram), errkind.MalformedContainer},
		{"short anih", anitest.ACON(anitest.Chunk{ID: "anih", Data: make([]byte, 20)}, fram), errkind.MalformedContainer},
		{"raw frames", anitest.ACON(anitest.Header(2, 2, 6, 0), fram), errkind.UnsupportedFeature},
		{"zero frames", anitest.ACON(anitest.Header(0, 0, 6, uint32(FlagIcon)), anitest.Frames()), errkind.MalformedContainer},
		{"frame count", anitest.ACON(anitest.Header(3, 3, 6, uint32(FlagIcon)), fram), errkind.MalformedContainer},
		{"rate length", anitest.ACON(hdr, anitest.Uint32s("rate", 10, 20, 10), fram), errkind.MalformedContainer},
		{"rate after seq", anitest.ACON(hdr, anitest.Uint32s("seq ", 0, 1, 0), anitest.Uint32s("rate", 1, 1), fram), errkind.MalformedContainer},
		{"seq range", anitest.ACON(hdr, anitest.Uint32s("seq ", 0, 2), fram), errkind.MalformedContainer},
		{"odd seq", anitest.ACON(hdr, anitest.Chunk{ID: "seq ", Data: []byte{0, 0, 0}}, fram), errkind.MalformedContainer},
		{"foreign fram chunk", anitest.ACON(hdr, anitest.List("fram", anitest.Chunk{ID: "bmp ", Data: []byte{0}})), errkind.MalformedContainer},
		{"bad icon", anitest.ACON(anitest.Header(1, 1, 6, uint32(FlagIcon)), anitest.Frames([]byte{0, 0, 9, 0})), errkind.MalformedContainer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			if err == nil {
				t.Fatalf("expected %v, got nil", tc.kind)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}
