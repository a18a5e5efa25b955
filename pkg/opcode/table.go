// Package opcode holds the static, total mapping from a 9-bit opcode id
// (the 256 real 65816 opcodes plus two synthetic pointer pseudo-ops) to
// instruction metadata: mnemonic, addressing mode, and the label-policy
// flags the resolver consults.
package opcode

// OpCode identifies a table slot: 0x00-0xFF are real opcode bytes, 0x100
// and 0x101 are the synthetic ".dw"/pointer pseudo-ops used by the Ptr and
// PtrLong range-driver emission modes.
type OpCode uint16

const (
	// PtrShort is the synthetic 16-bit pointer pseudo-op.
	PtrShort OpCode = 0x100
	// PtrLong is the synthetic 24-bit pointer pseudo-op.
	PtrLong OpCode = 0x101

	// OpCodeCount is the total number of table slots.
	OpCodeCount = 0x102
)

// Info is one opcode's metadata.
type Info struct {
	Mnemonic    string
	Mode        Mode
	AlwaysLabel bool // always_label policy bit; no table entry sets it and the resolver does not read it
	NoAddrLabel bool // no_addr_label policy bit; no table entry sets it and the resolver does not read it
	IsBranch    bool // branch/jump-family instruction, consulted by the label resolver
	IsReturn    bool // RTS/RTL/RTI, used by the stop_at_rts range-driver option
}

// Catalog is the total table: every index 0..OpCodeCount-1 has an entry.
var Catalog [OpCodeCount]Info

type row struct {
	op       OpCode
	mnemonic string
	mode     Mode
}

func init() {
	for _, r := range realOpcodes {
		Catalog[r.op] = Info{Mnemonic: r.mnemonic, Mode: r.mode}
	}
	for _, op := range branchOps {
		e := Catalog[op]
		e.IsBranch = true
		Catalog[op] = e
	}
	for _, op := range returnOps {
		e := Catalog[op]
		e.IsReturn = true
		Catalog[op] = e
	}

	Catalog[PtrShort] = Info{Mnemonic: ".dw", Mode: Absolute}
	Catalog[PtrLong] = Info{Mnemonic: ".dw", Mode: LongPointer}
}

// branchOps are the mnemonics the label resolver treats as "is_branch" when
// deciding whether a sub-0x8000 reference is label-worthy.
var branchOps = []OpCode{
	0x10, 0x30, 0x50, 0x70, 0x90, 0xB0, 0xD0, 0xF0, // BPL BMI BVC BVS BCC BCS BNE BEQ
	0x80, 0x82, // BRA BRL
	0x4C, 0x5C, 0x6C, 0x7C, // JMP absolute / long / indirect / indexed-indirect
	0x20, 0x22, 0xFC, // JSR / JSL / JSR (addr,X)
}

// returnOps mark the instructions that end a range when stop_at_rts is set.
var returnOps = []OpCode{0x40, 0x60, 0x6B} // RTI RTS RTL

// realOpcodes is the complete, authoritative 256-entry 65816 opcode table,
// transcribed in opcode-byte order (one row group per high nibble, matching
// the conventional CPU datasheet layout).
var realOpcodes = []row{
	// 0x00-0x0F
	{0x00, "BRK", Implied},
	{0x01, "ORA", DPIndexedIndirectX},
	{0x02, "COP", Implied},
	{0x03, "ORA", StackRelative},
	{0x04, "TSB", DirectPage},
	{0x05, "ORA", DirectPage},
	{0x06, "ASL", DirectPage},
	{0x07, "ORA", DPIndirectLong},
	{0x08, "PHP", Implied},
	{0x09, "ORA", Immediate},
	{0x0A, "ASL", Implied},
	{0x0B, "PHD", Implied},
	{0x0C, "TSB", Absolute},
	{0x0D, "ORA", Absolute},
	{0x0E, "ASL", Absolute},
	{0x0F, "ORA", AbsoluteLong},

	// 0x10-0x1F
	{0x10, "BPL", ProgramCounterRelative},
	{0x11, "ORA", DPIndirectIndexedY},
	{0x12, "ORA", DPIndirect},
	{0x13, "ORA", SRIndirectIndexedY},
	{0x14, "TRB", DirectPage},
	{0x15, "ORA", DPIndexedX},
	{0x16, "ASL", DPIndexedX},
	{0x17, "ORA", DPIndirectLongIndexedY},
	{0x18, "CLC", Implied},
	{0x19, "ORA", AbsoluteIndexedY},
	{0x1A, "INC", Accumulator},
	{0x1B, "TCS", Implied},
	{0x1C, "TRB", Absolute},
	{0x1D, "ORA", AbsoluteIndexedX},
	{0x1E, "ASL", AbsoluteIndexedX},
	{0x1F, "ORA", AbsoluteLongIndexedX},

	// 0x20-0x2F
	{0x20, "JSR", Absolute},
	{0x21, "AND", DPIndexedIndirectX},
	{0x22, "JSL", AbsoluteLong},
	{0x23, "AND", StackRelative},
	{0x24, "BIT", DirectPage},
	{0x25, "AND", DirectPage},
	{0x26, "ROL", DirectPage},
	{0x27, "AND", DPIndirectLong},
	{0x28, "PLP", Implied},
	{0x29, "AND", Immediate},
	{0x2A, "ROL", Implied},
	{0x2B, "PLD", Implied},
	{0x2C, "BIT", Absolute},
	{0x2D, "AND", Absolute},
	{0x2E, "ROL", Absolute},
	{0x2F, "AND", AbsoluteLong},

	// 0x30-0x3F
	{0x30, "BMI", ProgramCounterRelative},
	{0x31, "AND", DPIndirectIndexedY},
	{0x32, "AND", DPIndirect},
	{0x33, "AND", SRIndirectIndexedY},
	{0x34, "BIT", DPIndexedX},
	{0x35, "AND", DPIndexedX},
	{0x36, "ROL", DPIndexedX},
	{0x37, "AND", DPIndirectLongIndexedY},
	{0x38, "SEC", Implied},
	{0x39, "AND", AbsoluteIndexedY},
	{0x3A, "DEC", Accumulator},
	{0x3B, "TSC", Implied},
	{0x3C, "BIT", AbsoluteIndexedX},
	{0x3D, "AND", AbsoluteIndexedX},
	{0x3E, "ROL", AbsoluteIndexedX},
	{0x3F, "AND", AbsoluteLongIndexedX},

	// 0x40-0x4F
	{0x40, "RTI", Implied},
	{0x41, "EOR", DPIndexedIndirectX},
	{0x42, "???", Implied},
	{0x43, "EOR", StackRelative},
	{0x44, "MVP", BlockMove},
	{0x45, "EOR", DirectPage},
	{0x46, "LSR", DirectPage},
	{0x47, "EOR", DPIndirectLong},
	{0x48, "PHA", Implied},
	{0x49, "EOR", Immediate},
	{0x4A, "LSR", Implied},
	{0x4B, "PHK", Implied},
	{0x4C, "JMP", Absolute},
	{0x4D, "EOR", Absolute},
	{0x4E, "LSR", Absolute},
	{0x4F, "EOR", AbsoluteLong},

	// 0x50-0x5F
	{0x50, "BVC", ProgramCounterRelative},
	{0x51, "EOR", DPIndirectIndexedY},
	{0x52, "EOR", DPIndirect},
	{0x53, "EOR", SRIndirectIndexedY},
	{0x54, "MVN", BlockMove},
	{0x55, "EOR", DPIndexedX},
	{0x56, "LSR", DPIndexedX},
	{0x57, "EOR", DPIndirectLongIndexedY},
	{0x58, "CLI", Implied},
	{0x59, "EOR", AbsoluteIndexedY},
	{0x5A, "PHY", Implied},
	{0x5B, "TCD", Implied},
	{0x5C, "JMP", AbsoluteLong},
	{0x5D, "EOR", AbsoluteIndexedX},
	{0x5E, "LSR", AbsoluteIndexedX},
	{0x5F, "EOR", AbsoluteLongIndexedX},

	// 0x60-0x6F
	{0x60, "RTS", Implied},
	{0x61, "ADC", DPIndexedIndirectX},
	{0x62, "PER", StackPCRelativeLong},
	{0x63, "ADC", StackRelative},
	{0x64, "STZ", DirectPage},
	{0x65, "ADC", DirectPage},
	{0x66, "ROR", DirectPage},
	{0x67, "ADC", DPIndirectLong},
	{0x68, "PLA", Implied},
	{0x69, "ADC", Immediate},
	{0x6A, "ROR", Implied},
	{0x6B, "RTL", Implied},
	{0x6C, "JMP", AbsoluteIndirect},
	{0x6D, "ADC", Absolute},
	{0x6E, "ROR", Absolute},
	{0x6F, "ADC", AbsoluteLong},

	// 0x70-0x7F
	{0x70, "BVS", ProgramCounterRelative},
	{0x71, "ADC", DPIndirectIndexedY},
	{0x72, "ADC", DPIndirect},
	{0x73, "ADC", SRIndirectIndexedY},
	{0x74, "STZ", DPIndexedX},
	{0x75, "ADC", DPIndexedX},
	{0x76, "ROR", DPIndexedX},
	{0x77, "ADC", DPIndirectLongIndexedY},
	{0x78, "SEI", Implied},
	{0x79, "ADC", AbsoluteIndexedY},
	{0x7A, "PLY", Implied},
	{0x7B, "TDC", Implied},
	{0x7C, "JMP", AbsoluteIndexedIndirect},
	{0x7D, "ADC", AbsoluteIndexedX},
	{0x7E, "ROR", AbsoluteIndexedX},
	{0x7F, "ADC", AbsoluteLongIndexedX},

	// 0x80-0x8F
	{0x80, "BRA", ProgramCounterRelative},
	{0x81, "STA", DPIndexedIndirectX},
	{0x82, "BRL", ProgramCounterRelativeLong},
	{0x83, "STA", StackRelative},
	{0x84, "STY", DirectPage},
	{0x85, "STA", DirectPage},
	{0x86, "STX", DirectPage},
	{0x87, "STA", DPIndirectLong},
	{0x88, "DEY", Implied},
	{0x89, "BIT", Immediate},
	{0x8A, "TXA", Implied},
	{0x8B, "PHB", Implied},
	{0x8C, "STY", Absolute},
	{0x8D, "STA", Absolute},
	{0x8E, "STX", Absolute},
	{0x8F, "STA", AbsoluteLong},

	// 0x90-0x9F
	{0x90, "BCC", ProgramCounterRelative},
	{0x91, "STA", DPIndirectIndexedY},
	{0x92, "STA", DPIndirect},
	{0x93, "STA", SRIndirectIndexedY},
	{0x94, "STY", DPIndexedX},
	{0x95, "STA", DPIndexedX},
	{0x96, "STX", DPIndexedX},
	{0x97, "STA", DPIndirectLongIndexedY},
	{0x98, "TYA", Implied},
	{0x99, "STA", AbsoluteIndexedY},
	{0x9A, "TXS", Implied},
	{0x9B, "TXY", Implied},
	{0x9C, "STZ", Absolute},
	{0x9D, "STA", AbsoluteIndexedX},
	{0x9E, "STZ", AbsoluteIndexedX},
	{0x9F, "STA", AbsoluteLongIndexedX},

	// 0xA0-0xAF
	{0xA0, "LDY", ImmediateXY},
	{0xA1, "LDA", DPIndexedIndirectX},
	{0xA2, "LDX", ImmediateXY},
	{0xA3, "LDA", StackRelative},
	{0xA4, "LDY", DirectPage},
	{0xA5, "LDA", DirectPage},
	{0xA6, "LDX", DirectPage},
	{0xA7, "LDA", DPIndirectLong},
	{0xA8, "TAY", Implied},
	{0xA9, "LDA", Immediate},
	{0xAA, "TAX", Implied},
	{0xAB, "PLB", Implied},
	{0xAC, "LDY", Absolute},
	{0xAD, "LDA", Absolute},
	{0xAE, "LDX", Absolute},
	{0xAF, "LDA", AbsoluteLong},

	// 0xB0-0xBF
	{0xB0, "BCS", ProgramCounterRelative},
	{0xB1, "LDA", DPIndirectIndexedY},
	{0xB2, "LDA", DPIndirect},
	{0xB3, "LDA", SRIndirectIndexedY},
	{0xB4, "LDY", DPIndexedX},
	{0xB5, "LDA", DPIndexedX},
	{0xB6, "LDX", DPIndexedY},
	{0xB7, "LDA", DPIndirectLongIndexedY},
	{0xB8, "CLV", Implied},
	{0xB9, "LDA", AbsoluteIndexedY},
	{0xBA, "TSX", Implied},
	{0xBB, "TYX", Implied},
	{0xBC, "LDY", AbsoluteIndexedX},
	{0xBD, "LDA", AbsoluteIndexedX},
	{0xBE, "LDX", AbsoluteIndexedY},
	{0xBF, "LDA", AbsoluteLongIndexedX},

	// 0xC0-0xCF
	{0xC0, "CPY", ImmediateXY},
	{0xC1, "CMP", DPIndexedIndirectX},
	{0xC2, "REP", ImmediateREP},
	{0xC3, "CMP", StackRelative},
	{0xC4, "CPY", DirectPage},
	{0xC5, "CMP", DirectPage},
	{0xC6, "DEC", DirectPage},
	{0xC7, "CMP", DPIndirectLong},
	{0xC8, "INY", Implied},
	{0xC9, "CMP", Immediate},
	{0xCA, "DEX", Implied},
	{0xCB, "WAI", Implied},
	{0xCC, "CPY", Absolute},
	{0xCD, "CMP", Absolute},
	{0xCE, "DEC", Absolute},
	{0xCF, "CMP", AbsoluteLong},

	// 0xD0-0xDF
	{0xD0, "BNE", ProgramCounterRelative},
	{0xD1, "CMP", DPIndirectIndexedY},
	{0xD2, "CMP", DPIndirect},
	{0xD3, "CMP", SRIndirectIndexedY},
	{0xD4, "PEI", StackDPIndirect},
	{0xD5, "CMP", DPIndexedX},
	{0xD6, "DEC", DPIndexedX},
	{0xD7, "CMP", DPIndirectLongIndexedY},
	{0xD8, "CLD", Implied},
	{0xD9, "CMP", AbsoluteIndexedY},
	{0xDA, "PHX", Implied},
	{0xDB, "STP", Implied},
	{0xDC, "JMP", AbsoluteIndirectLong},
	{0xDD, "CMP", AbsoluteIndexedX},
	{0xDE, "DEC", AbsoluteIndexedX},
	{0xDF, "CMP", AbsoluteLongIndexedX},

	// 0xE0-0xEF
	{0xE0, "CPX", ImmediateXY},
	{0xE1, "SBC", DPIndexedIndirectX},
	{0xE2, "SEP", ImmediateSEP},
	{0xE3, "SBC", StackRelative},
	{0xE4, "CPX", DirectPage},
	{0xE5, "SBC", DirectPage},
	{0xE6, "INC", DirectPage},
	{0xE7, "SBC", DPIndirectLong},
	{0xE8, "INX", Implied},
	{0xE9, "SBC", Immediate},
	{0xEA, "NOP", Implied},
	{0xEB, "XBA", Implied},
	{0xEC, "CPX", Absolute},
	{0xED, "SBC", Absolute},
	{0xEE, "INC", Absolute},
	{0xEF, "SBC", AbsoluteLong},

	// 0xF0-0xFF
	{0xF0, "BEQ", ProgramCounterRelative},
	{0xF1, "SBC", DPIndirectIndexedY},
	{0xF2, "SBC", DPIndirect},
	{0xF3, "SBC", SRIndirectIndexedY},
	{0xF4, "PEA", StackPCRelativeLong},
	{0xF5, "SBC", DPIndexedX},
	{0xF6, "INC", DPIndexedX},
	{0xF7, "SBC", DPIndirectLongIndexedY},
	{0xF8, "SED", Implied},
	{0xF9, "SBC", AbsoluteIndexedY},
	{0xFA, "PLX", Implied},
	{0xFB, "XCE", Implied},
	{0xFC, "JSR", AbsoluteIndexedIndirect},
	{0xFD, "SBC", AbsoluteIndexedX},
	{0xFE, "INC", AbsoluteIndexedX},
	{0xFF, "SBC", AbsoluteLongIndexedX},
}
