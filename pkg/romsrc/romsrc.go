// Package romsrc provides the seekable byte-source capability over a ROM
// image file, plus detection of its LoROM/HiROM mapping from the cartridge
// header. Source and Sink (pkg/sink) are both expressed as capability
// interfaces so the engine never depends on a concrete file or writer type.
package romsrc

import (
	"bytes"
	"fmt"
	"io"
)

// Source is a single-cursor byte source: ReadByte only moves the cursor
// forward, Seek repositions it. The engine drives it synchronously; reads
// are never reentrant.
type Source interface {
	Seek(offset int64) error
	ReadByte() (uint8, error)
}

// FileSource wraps an in-memory ROM image (loaded once by the caller) with
// a single read cursor and a fixed-size header to skip.
type FileSource struct {
	data       []byte
	headerSize int
	pos        int64
}

// NewFileSource wraps data, a full ROM image, skipping headerSize bytes of
// copier header on every Seek.
func NewFileSource(data []byte, headerSize int) *FileSource {
	return &FileSource{data: data, headerSize: headerSize}
}

// Seek moves the cursor to headerSize+offset. Returns an error if that
// lands past end-of-file, aborting whatever request triggered the seek.
func (f *FileSource) Seek(offset int64) error {
	target := int64(f.headerSize) + offset
	if target < 0 || target > int64(len(f.data)) {
		return fmt.Errorf("romsrc: seek to %d past end of file (size %d)", target, len(f.data))
	}
	f.pos = target
	return nil
}

// ReadByte reads the next byte, advancing the cursor.
func (f *FileSource) ReadByte() (uint8, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	b := f.data[f.pos]
	f.pos++
	return b, nil
}

// Mapping byte offsets relative to the start of the ROM data proper (after
// the copier header), per the SNES cartridge header convention.
const (
	loromHeaderOffset = 0x7FC0
	hiromHeaderOffset = 0xFFC0
	checksumOffset    = 0x1C
	complementOffset  = 0x1E
)

// DetectMapping inspects both candidate header locations and returns true
// if the ROM appears to be HiROM, based on the checksum/complement pair
// satisfying checksum ^ complement == 0xFFFF. Falls back to LoROM (false)
// if neither location is plausible; callers can still force a mapping
// explicitly instead of relying on this heuristic.
func DetectMapping(romData []byte) (hirom bool) {
	loromOK := plausibleHeader(romData, loromHeaderOffset)
	hiromOK := plausibleHeader(romData, hiromHeaderOffset)
	if hiromOK && !loromOK {
		return true
	}
	return false
}

func plausibleHeader(data []byte, base int) bool {
	if base+complementOffset+2 > len(data) {
		return false
	}
	checksum := le16(data[base+checksumOffset:])
	complement := le16(data[base+complementOffset:])
	return checksum^complement == 0xFFFF
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// ReadAll reads a full ROM image from r into memory, ready to be wrapped in
// a FileSource.
func ReadAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
