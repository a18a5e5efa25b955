package disasm

import (
	"strings"
	"testing"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/byteprop"
	"github.com/snesdev/disasm65816/pkg/romsrc"
	"github.com/snesdev/disasm65816/pkg/sink"
)

// romAt builds a ROM image of the given file size with bytes placed at the
// file index that corresponds to (bank, addr16) under LoROM, matching
// pkg/addr.ToIndex's bank*0x8000 + (addr16-0x8000) mapping.
func romAt(size int, bank uint8, addr16 uint16, bytes ...uint8) []byte {
	rom := make([]byte, size)
	start := addr.ToIndex(bank, addr16, false)
	copy(rom[start:], bytes)
	return rom
}

func newEngine(rom []byte) (*Engine, *strings.Builder) {
	props := byteprop.New(false)
	src := romsrc.NewFileSource(rom, 0)
	var out strings.Builder
	snk := sink.NewPlainText(&out)
	e := NewEngine(props, src, snk, false, nil)
	return e, &out
}

// An unannotated run of NOPs prints five plain lines with no labels at all,
// even though every address is >= 0x8000.
func TestAsmUnreferencedNOPsPrintNoLabels(t *testing.T) {
	rom := romAt(0x8005, 0, 0x8000, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA)
	e, out := newEngine(rom)
	req := Request{Type: Asm, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8005}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	lines := countOccurrences(out.String(), "NOP")
	if lines != 5 {
		t.Errorf("got %d NOP lines, want 5:\n%s", lines, out.String())
	}
	if strings.Contains(out.String(), ":") {
		t.Errorf("expected no labels in output:\n%s", out.String())
	}
}

// LDA #$1234 decodes with a two-byte immediate under a 16-bit accumulator.
func TestAsmImmediateWidthAccum16(t *testing.T) {
	rom := romAt(0x8003, 0, 0x8000, 0xA9, 0x34, 0x12)
	e, out := newEngine(rom)
	req := Request{
		Type: Asm, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8003,
		Properties: Properties{StartAccum16: true},
	}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "LDA #$1234") {
		t.Errorf("expected LDA #$1234, got:\n%s", out.String())
	}
}

// The same bytes under an 8-bit accumulator decode LDA #$34, with the
// trailing 0x12 byte decoding as its own instruction.
func TestAsmImmediateWidthAccum8(t *testing.T) {
	rom := romAt(0x8003, 0, 0x8000, 0xA9, 0x34, 0x12)
	e, out := newEngine(rom)
	req := Request{
		Type: Asm, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8003,
		Properties: Properties{StartAccum16: false},
	}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "LDA #$34") {
		t.Errorf("expected LDA #$34, got:\n%s", out.String())
	}
}

// A branch that targets its own address gets a synthesized ADDR_ label on
// its own line: pass 1 discovers the label via the operand reference, pass
// 2 emits it on the line itself.
func TestSmartBranchToSelfGetsSyntheticLabel(t *testing.T) {
	rom := romAt(0x8002, 0, 0x8000, 0x80, 0xFE)
	e, out := newEngine(rom)
	req := Request{
		Type: Smart, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8002,
		Properties: Properties{Passes: 2},
	}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ADDR_008000: BRA ADDR_008000") {
		t.Errorf("expected self-branch label line, got:\n%s", out.String())
	}
}

// A Dcb request over an annotated data region prints one .db line carrying
// the region's user-supplied label.
func TestDcbDataRegionWithLabel(t *testing.T) {
	rom := romAt(0x8014, 0, 0x8010, 0xDE, 0xAD, 0xBE, 0xEF)
	e, out := newEngine(rom)
	startIdx := addr.ToIndexAddr24(addr.Join(0, 0x8010), false)
	endIdx := addr.ToIndexAddr24(addr.Join(0, 0x8014), false)
	e.Props.SetClassificationRange(startIdx, endIdx, byteprop.RawData)
	e.Props.SetLabel(startIdx, "DATA_008010")

	req := Request{Type: Dcb, StartBank: 0, StartAddr: 0x8010, EndBank: 0, EndAddr: 0x8014}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	want := "DATA_008010: .db $DE, $AD, $BE, $EF"
	if !strings.Contains(out.String(), want) {
		t.Errorf("expected %q, got:\n%s", want, out.String())
	}
}

// A Ptr request over a two-entry pointer table prints two .dw lines.
func TestPtrTableTwoEntries(t *testing.T) {
	rom := romAt(0x8024, 0, 0x8020, 0x00, 0x80, 0x34, 0x12)
	e, out := newEngine(rom)
	startIdx := addr.ToIndexAddr24(addr.Join(0, 0x8020), false)
	endIdx := addr.ToIndexAddr24(addr.Join(0, 0x8024), false)
	e.Props.SetClassificationRange(startIdx, endIdx, byteprop.ShortPointer)

	req := Request{Type: Ptr, StartBank: 0, StartAddr: 0x8020, EndBank: 0, EndAddr: 0x8024}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	got := countOccurrences(out.String(), ".dw")
	if got != 2 {
		t.Errorf("expected 2 .dw lines, got %d:\n%s", got, out.String())
	}
}

// When a Code run's classification boundary falls mid-instruction, the
// decoded instruction still reads its full operand past the boundary; the
// next run must reseek the physical source to the logical boundary rather
// than continuing from wherever the straddling instruction left off.
func TestSmartReseeksAfterInstructionStraddlesRunBoundary(t *testing.T) {
	rom := romAt(0x8004, 0, 0x8000, 0xAD, 0x34, 0x12, 0xFF) // LDA $1234, then one data byte
	e, out := newEngine(rom)
	startIdx := addr.ToIndexAddr24(addr.Join(0, 0x8001), false)
	endIdx := addr.ToIndexAddr24(addr.Join(0, 0x8004), false)
	e.Props.SetClassificationRange(startIdx, endIdx, byteprop.RawData)

	req := Request{Type: Smart, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8004}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "LDA $1234") {
		t.Errorf("expected the straddling LDA instruction, got:\n%s", out.String())
	}
	want := ".db $34, $12, $FF"
	if !strings.Contains(out.String(), want) {
		t.Errorf("expected the data run to read from the boundary, not mid-stream, got:\n%s", out.String())
	}
}

func TestStopAtRTS(t *testing.T) {
	rom := romAt(0x8003, 0, 0x8000, 0xEA, 0x60, 0xEA) // NOP, RTS, NOP (unreached)
	e, out := newEngine(rom)
	req := Request{
		Type: Asm, StartBank: 0, StartAddr: 0x8000, EndBank: 0, EndAddr: 0x8003,
		Properties: Properties{StopAtRTS: true},
	}
	if err := e.HandleRequest(req); err != nil {
		t.Fatal(err)
	}
	if countOccurrences(out.String(), "NOP") != 1 {
		t.Errorf("expected exactly one NOP before RTS stopped the range:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "RTS") {
		t.Errorf("expected RTS to be emitted:\n%s", out.String())
	}
}

func countOccurrences(s, substr string) int {
	n := 0
	for {
		i := strings.Index(s, substr)
		if i < 0 {
			return n
		}
		n++
		s = s[i+len(substr):]
	}
}
