package decoder

import (
	"fmt"
	"io"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/opcode"
)

// ByteSource is the minimal capability a decode handler needs to consume
// operand bytes. It advances strictly forward; reentrant reads are never
// issued by the engine.
type ByteSource interface {
	ReadByte() (uint8, error)
}

// Resolver is satisfied by pkg/label.Resolver. Declared here (rather than
// imported) so pkg/decoder has no dependency on pkg/label; pkg/disasm wires
// the two together.
type Resolver interface {
	Resolve(key addr.Addr24, isBranch bool) string
}

// Instruction is one decoded instruction, ready for an output sink.
type Instruction struct {
	Op           opcode.OpCode
	Mnemonic     string
	Mode         opcode.Mode
	OperandBytes []uint8
	OperandText  string
	Target       addr.Addr24
	HasTarget    bool
}

// Decode consumes zero or more operand bytes from src for the instruction
// identified by op, resolving labels through res and reading/writing width
// flags on s. dataBankHint is the data-bank override in effect at the
// instruction's first byte (the byte-property map's per-byte field).
func Decode(s *State, src ByteSource, res Resolver, dataBankHint uint8, op opcode.OpCode) (Instruction, error) {
	info := opcode.Catalog[op]
	instr := Instruction{Op: op, Mnemonic: info.Mnemonic, Mode: info.Mode}

	readByte := func() (uint8, error) {
		b, err := src.ReadByte()
		if err != nil {
			return 0, err
		}
		instr.OperandBytes = append(instr.OperandBytes, b)
		s.Advance()
		return b, nil
	}
	readWord := func() (uint16, error) {
		lo, err := readByte()
		if err != nil {
			return 0, err
		}
		hi, err := readByte()
		if err != nil {
			return 0, err
		}
		return uint16(lo) | uint16(hi)<<8, nil
	}

	resolve := func(target addr.Addr24) string {
		return res.Resolve(target, info.IsBranch)
	}

	switch info.Mode {
	case opcode.Implied, opcode.Accumulator:
		// no operand bytes
		if info.Mode == opcode.Accumulator {
			instr.OperandText = "A"
		}

	case opcode.Immediate:
		if s.Accum16 {
			v, err := readWord()
			if err != nil {
				return instr, err
			}
			instr.OperandText = fmt.Sprintf("#$%04X", v)
		} else {
			v, err := readByte()
			if err != nil {
				return instr, err
			}
			instr.OperandText = fmt.Sprintf("#$%02X", v)
		}

	case opcode.ImmediateXY:
		if s.Index16 {
			v, err := readWord()
			if err != nil {
				return instr, err
			}
			instr.OperandText = fmt.Sprintf("#$%04X", v)
		} else {
			v, err := readByte()
			if err != nil {
				return instr, err
			}
			instr.OperandText = fmt.Sprintf("#$%02X", v)
		}

	case opcode.ImmediateSEP, opcode.ImmediateREP:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.OperandText = fmt.Sprintf("#$%02X", v)
		applyWidthFlag(s, &instr, op, v)

	case opcode.Absolute:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(dataBankHint, v)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", v)

	case opcode.AbsoluteLong:
		lo, err := readWord()
		if err != nil {
			return instr, err
		}
		bankByte, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(bankByte, lo)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%06X", uint32(instr.Target))

	case opcode.AbsoluteIndexedX:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(dataBankHint, v)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", v) + ",X"

	case opcode.AbsoluteIndexedY:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(dataBankHint, v)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", v) + ",Y"

	case opcode.AbsoluteLongIndexedX:
		lo, err := readWord()
		if err != nil {
			return instr, err
		}
		bankByte, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(bankByte, lo)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%06X", uint32(instr.Target)) + ",X"

	case opcode.AbsoluteIndirect:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, v)
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%04X", v) + ")"

	case opcode.AbsoluteIndirectLong:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, v)
		instr.HasTarget = true
		instr.OperandText = "[" + labelOrHex(resolve(instr.Target), "$%04X", v) + "]"

	case opcode.AbsoluteIndexedIndirect:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(s.Bank, v)
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%04X", v) + ",X)"

	case opcode.DirectPage:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%02X", v)

	case opcode.DPIndexedX:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%02X", v) + ",X"

	case opcode.DPIndexedY:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%02X", v) + ",Y"

	case opcode.DPIndirect:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%02X", v) + ")"

	case opcode.DPIndirectLong:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "[" + labelOrHex(resolve(instr.Target), "$%02X", v) + "]"

	case opcode.DPIndirectIndexedY:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%02X", v) + "),Y"

	case opcode.DPIndirectLongIndexedY:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "[" + labelOrHex(resolve(instr.Target), "$%02X", v) + "],Y"

	case opcode.DPIndexedIndirectX:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%02X", v) + ",X)"

	case opcode.StackRelative:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.OperandText = fmt.Sprintf("$%02X,S", v)

	case opcode.SRIndirectIndexedY:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.OperandText = fmt.Sprintf("($%02X,S),Y", v)

	case opcode.ProgramCounterRelative:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		disp := int8(v)
		bank, addr16 := s.Bank, s.Addr16
		target16 := uint16(int32(addr16) + int32(disp))
		instr.Target = addr.Join(bank, target16)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", target16)

	case opcode.ProgramCounterRelativeLong:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		disp := int16(v)
		bank, addr16 := s.Bank, s.Addr16
		target16 := uint16(int32(addr16) + int32(disp))
		instr.Target = addr.Join(bank, target16)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", target16)

	case opcode.StackPCRelativeLong:
		v, err := readWord()
		if err != nil {
			return instr, err
		}
		disp := int16(v)
		bank, addr16 := s.Bank, s.Addr16
		target16 := uint16(int32(addr16) + int32(disp))
		instr.Target = addr.Join(bank, target16)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%04X", target16)

	case opcode.StackDPIndirect:
		v, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(0, uint16(v))
		instr.HasTarget = true
		instr.OperandText = "(" + labelOrHex(resolve(instr.Target), "$%02X", v) + ")"

	case opcode.BlockMove:
		destBank, err := readByte()
		if err != nil {
			return instr, err
		}
		srcBank, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.OperandText = fmt.Sprintf("#$%02X,#$%02X", srcBank, destBank)

	case opcode.LongPointer:
		lo, err := readWord()
		if err != nil {
			return instr, err
		}
		bankByte, err := readByte()
		if err != nil {
			return instr, err
		}
		instr.Target = addr.Join(bankByte, lo)
		instr.HasTarget = true
		instr.OperandText = labelOrHex(resolve(instr.Target), "$%06X", uint32(instr.Target))

	default:
		return instr, fmt.Errorf("decoder: unhandled addressing mode %v", info.Mode)
	}

	return instr, nil
}

func labelOrHex(label, format string, v any) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf(format, v)
}

// applyWidthFlag implements REP/SEP side effects on register width: REP
// clears the bits named by v, SEP sets them. PLP leaves widths unchanged and
// relies on user annotations instead (see DESIGN.md Open Question 2).
func applyWidthFlag(s *State, instr *Instruction, op opcode.OpCode, v uint8) {
	const (
		pFlagM = 0x20 // accumulator width bit in the status register
		pFlagX = 0x10 // index width bit in the status register
	)
	switch op {
	case 0xC2: // REP
		if v&pFlagM != 0 {
			s.Accum16 = true
			s.ProcFlagShadow |= ShadowAccumChanged
		}
		if v&pFlagX != 0 {
			s.Index16 = true
			s.ProcFlagShadow |= ShadowIndexChanged
		}
	case 0xE2: // SEP
		if v&pFlagM != 0 {
			s.Accum16 = false
			s.ProcFlagShadow |= ShadowAccumChanged
		}
		if v&pFlagX != 0 {
			s.Index16 = false
			s.ProcFlagShadow |= ShadowIndexChanged
		}
	}
}

// ErrEndOfStream is io.EOF itself, the error a handler returns when it runs
// out of bytes mid-operand; the range driver treats this as a
// truncated-operand abort.
var ErrEndOfStream = io.EOF
