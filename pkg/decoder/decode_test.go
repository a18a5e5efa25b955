package decoder

import (
	"errors"
	"io"
	"testing"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/opcode"
)

type fakeSource struct {
	bytes []uint8
	pos   int
}

func (f *fakeSource) ReadByte() (uint8, error) {
	if f.pos >= len(f.bytes) {
		return 0, io.EOF
	}
	b := f.bytes[f.pos]
	f.pos++
	return b, nil
}

type nullResolver struct{}

func (nullResolver) Resolve(key addr.Addr24, isBranch bool) string { return "" }

func TestDecodeImmediate16(t *testing.T) {
	s := &State{Accum16: true}
	src := &fakeSource{bytes: []uint8{0x34, 0x12}}
	instr, err := Decode(s, src, nullResolver{}, 0, 0xA9) // LDA #
	if err != nil {
		t.Fatal(err)
	}
	if instr.OperandText != "#$1234" {
		t.Errorf("operand text = %q, want #$1234", instr.OperandText)
	}
}

func TestDecodeImmediate8(t *testing.T) {
	s := &State{Accum16: false}
	src := &fakeSource{bytes: []uint8{0x34, 0x12}}
	instr, err := Decode(s, src, nullResolver{}, 0, 0xA9) // LDA #
	if err != nil {
		t.Fatal(err)
	}
	if instr.OperandText != "#$34" {
		t.Errorf("operand text = %q, want #$34", instr.OperandText)
	}
	if len(instr.OperandBytes) != 1 {
		t.Errorf("consumed %d bytes, want 1 (stray byte left for caller)", len(instr.OperandBytes))
	}
}

func TestDecodeRepSep(t *testing.T) {
	s := &State{Accum16: false, Index16: false}
	src := &fakeSource{bytes: []uint8{0x30}} // clears M and X bits
	if _, err := Decode(s, src, nullResolver{}, 0, 0xC2); err != nil {
		t.Fatal(err)
	}
	if !s.Accum16 || !s.Index16 {
		t.Errorf("REP #$30 should set both widths to 16-bit: %+v", s)
	}
	if s.ProcFlagShadow&ShadowAccumChanged == 0 || s.ProcFlagShadow&ShadowIndexChanged == 0 {
		t.Errorf("expected both shadow bits set, got %#x", s.ProcFlagShadow)
	}

	s2 := &State{Accum16: true, Index16: true}
	src2 := &fakeSource{bytes: []uint8{0x30}}
	if _, err := Decode(s2, src2, nullResolver{}, 0, 0xE2); err != nil {
		t.Fatal(err)
	}
	if s2.Accum16 || s2.Index16 {
		t.Errorf("SEP #$30 should set both widths to 8-bit: %+v", s2)
	}
}

func TestDecodeAbsoluteUsesLabel(t *testing.T) {
	s := &State{}
	src := &fakeSource{bytes: []uint8{0x00, 0x80}}
	labeled := resolverFunc(func(key addr.Addr24, isBranch bool) string { return "START" })
	instr, err := Decode(s, src, labeled, 0x00, 0x4C) // JMP addr
	if err != nil {
		t.Fatal(err)
	}
	if instr.OperandText != "START" {
		t.Errorf("operand text = %q, want START", instr.OperandText)
	}
	if instr.Target != addr.Join(0x00, 0x8000) {
		t.Errorf("target = %#x, want 0x008000", instr.Target)
	}
}

type resolverFunc func(key addr.Addr24, isBranch bool) string

func (f resolverFunc) Resolve(key addr.Addr24, isBranch bool) string { return f(key, isBranch) }

func TestDecodeProgramCounterRelative(t *testing.T) {
	s := &State{Bank: 0x00, Addr16: 0x8001} // address of the operand byte itself
	src := &fakeSource{bytes: []uint8{0xFE}} // -2: branch to self at 0x8000
	instr, err := Decode(s, src, nullResolver{}, 0, 0x80) // BRA
	if err != nil {
		t.Fatal(err)
	}
	if instr.Target != addr.Join(0x00, 0x8000) {
		t.Errorf("target = %#x, want 0x008000", instr.Target)
	}
}

func TestDecodeEndOfStream(t *testing.T) {
	s := &State{}
	src := &fakeSource{bytes: nil}
	_, err := Decode(s, src, nullResolver{}, 0, 0xA9)
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestDecodeImplied(t *testing.T) {
	s := &State{}
	src := &fakeSource{}
	instr, err := Decode(s, src, nullResolver{}, 0, opcode.OpCode(0xEA)) // NOP
	if err != nil {
		t.Fatal(err)
	}
	if instr.Mnemonic != "NOP" || instr.OperandText != "" {
		t.Errorf("NOP decode = %+v", instr)
	}
}
