// Package anitest builds ANI files for tests.
package anitest

import (
	"bytes"
	"encoding/binary"
)

// Chunk is a raw RIFF chunk. Data is written as is, padded to even length.
type Chunk struct {
	ID   string
	Data []byte
}

func (c Chunk) bytes() []byte {
	var out bytes.Buffer
	out.WriteString(c.ID)
	binary.Write(&out, binary.LittleEndian, uint32(len(c.Data))) //nolint:errcheck
	out.Write(c.Data)
	if len(c.Data)%2 == 1 {
		out.WriteByte(0)
	}
	return out.Bytes()
}

func join(typ string, chunks []Chunk) []byte {
	var out bytes.Buffer
	out.WriteString(typ)
	for _, c := range chunks {
		out.Write(c.bytes())
	}
	return out.Bytes()
}

// RIFF encodes a RIFF file of the given form type.
func RIFF(form string, chunks ...Chunk) []byte {
	return Chunk{ID: "RIFF", Data: join(form, chunks)}.bytes()
}

// ACON encodes an ANI file.
func ACON(chunks ...Chunk) []byte { return RIFF("ACON", chunks...) }

// List builds a LIST chunk.
func List(typ string, chunks ...Chunk) Chunk {
	return Chunk{ID: "LIST", Data: join(typ, chunks)}
}

// Header builds an anih chunk.
func Header(frames, steps, jiffies, flags uint32) Chunk {
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, [9]uint32{36, frames, steps, 0, 0, 0, 0, jiffies, flags}) //nolint:errcheck
	return Chunk{ID: "anih", Data: out.Bytes()}
}

// Uint32s builds a chunk holding a little-endian uint32 array, such as
// "rate" or "seq ".
func Uint32s(id string, v ...uint32) Chunk {
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, v) //nolint:errcheck
	return Chunk{ID: id, Data: out.Bytes()}
}

// Frames builds the fram list from encoded CUR files.
func Frames(icons ...[]byte) Chunk {
	chunks := make([]Chunk, len(icons))
	for i, icon := range icons {
		chunks[i] = Chunk{ID: "icon", Data: icon}
	}
	return List("fram", chunks...)
}

// Info builds an INFO list with a title and an author.
func Info(title, author string) Chunk {
	return List("INFO",
		Chunk{ID: "INAM", Data: append([]byte(title), 0)},
		Chunk{ID: "IART", Data: append([]byte(author), 0)},
	)
}
