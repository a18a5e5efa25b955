// Package decoder implements the mutable decoder state and the
// addressing-mode decode handlers, expressed as a single tagged-enum switch
// rather than a per-opcode function-pointer table.
package decoder

import "github.com/snesdev/disasm65816/pkg/addr"

// Width-changed bits recorded in State.ProcFlagShadow, a pure display
// side-channel: it records which of the two width flags this instruction
// touched, not their resulting values (those are read straight off State).
const (
	ShadowAccumChanged = 0x01
	ShadowIndexChanged = 0x02
)

// State is the decoder's mutable cursor and processor-mode flags.
type State struct {
	Bank           uint8
	Addr16         uint16
	Accum16        bool
	Index16        bool
	HiROM          bool
	ProcFlagShadow uint8
}

// Address returns the current position as a packed 24-bit address.
func (s *State) Address() addr.Addr24 {
	return addr.Join(s.Bank, s.Addr16)
}

// Index returns the current position's linear file index.
func (s *State) Index() int {
	return addr.ToIndex(s.Bank, s.Addr16, s.HiROM)
}

// IsBankStart reports whether the cursor sits at the first address of a bank.
func (s *State) IsBankStart() bool {
	return addr.IsBankStart(s.Addr16, s.HiROM)
}

// Advance moves the cursor forward by one byte, the only state mutation
// permitted mid-instruction. Exported so the range driver can advance the
// cursor itself when it reads the opcode byte, before handing off to
// Decode for the operand bytes.
func (s *State) Advance() {
	s.Bank, s.Addr16 = addr.Advance(s.Bank, s.Addr16, s.HiROM)
}

// ApplyWidthResets forcibly rewrites the width flags from annotation hints
// before an instruction at this boundary is decoded (see DESIGN.md Open
// Question 2 for why this happens on every boundary, not just at
// REP/SEP/PLP opcodes).
func (s *State) ApplyWidthResets(resetAccum, resetIndex int) {
	switch resetAccum {
	case 8:
		s.Accum16 = false
	case 16:
		s.Accum16 = true
	}
	switch resetIndex {
	case 8:
		s.Index16 = false
	case 16:
		s.Index16 = true
	}
}
