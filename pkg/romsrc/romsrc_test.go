package romsrc

import (
	"io"
	"testing"
)

func TestFileSourceSeekAndRead(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	src := NewFileSource(data, 2) // skip a 2-byte header
	if err := src.Seek(0); err != nil {
		t.Fatal(err)
	}
	b, err := src.ReadByte()
	if err != nil || b != 0x33 {
		t.Fatalf("ReadByte = %#x, %v, want 0x33, nil", b, err)
	}
}

func TestFileSourceSeekPastEOF(t *testing.T) {
	data := []byte{0x01, 0x02}
	src := NewFileSource(data, 0)
	if err := src.Seek(10); err == nil {
		t.Error("expected error seeking past end of file")
	}
}

func TestFileSourceReadByteEOF(t *testing.T) {
	data := []byte{0x01}
	src := NewFileSource(data, 0)
	src.Seek(1)
	if _, err := src.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte at end = %v, want io.EOF", err)
	}
}

func TestDetectMappingFallsBackToLoROM(t *testing.T) {
	data := make([]byte, 0x10000)
	if hirom := DetectMapping(data); hirom {
		t.Error("all-zero image should fall back to lorom")
	}
}

func TestDetectMappingHiROM(t *testing.T) {
	data := make([]byte, 0x10000)
	base := hiromHeaderOffset
	// checksum/complement pair that satisfies checksum ^ complement == 0xFFFF
	data[base+checksumOffset] = 0x34
	data[base+checksumOffset+1] = 0x12
	comp := uint16(0x1234) ^ 0xFFFF
	data[base+complementOffset] = byte(comp)
	data[base+complementOffset+1] = byte(comp >> 8)
	if hirom := DetectMapping(data); !hirom {
		t.Error("expected hirom detection to succeed")
	}
}
