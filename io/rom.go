package io

import (
	"io"
	"iter"

	"github.com/ezrec/arch242/internal"
)

// ROM_SIZE is the number of bytes addressable by the program counter.
const ROM_SIZE = 256

// Rom is a raw program image, loaded at address zero.
type Rom struct {
	Data []byte
}

// Defines returns an iter of defines for the rom.
func (rom *Rom) Defines() iter.Seq2[string, string] {
	return internal.Defines(map[string]string{
		"ROM_SIZE": "256",
	})
}

// Unmarshal loads rom data from a reader, replacing any existing data.
// An empty image is an error.
func (rom *Rom) Unmarshal(file io.Reader) (err error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return
	}

	if len(data) == 0 {
		err = ErrRomEmpty
		return
	}

	rom.Data = data

	return
}

// Marshal writes the rom's data to a writer.
func (rom *Rom) Marshal(file io.Writer) (err error) {
	_, err = file.Write(rom.Data)

	return
}

// Wrapped returns true if the image is larger than the addressable memory.
func (rom *Rom) Wrapped() bool {
	return len(rom.Data) > ROM_SIZE
}
