package opcode

// Mode is a tagged enum of addressing modes. Using a single enum with one
// decode switch (see pkg/decoder) avoids the function-pointer dispatch
// table the original disassembler used per handler.
type Mode int

const (
	Implied Mode = iota
	Accumulator
	Immediate   // width-dependent on the accumulator flag
	ImmediateXY // width-dependent on the index flag
	ImmediateSEP
	ImmediateREP
	Absolute
	AbsoluteLong
	AbsoluteIndexedX
	AbsoluteIndexedY
	AbsoluteLongIndexedX
	AbsoluteIndirect
	AbsoluteIndirectLong
	AbsoluteIndexedIndirect
	DirectPage
	DPIndexedX
	DPIndexedY
	DPIndirect
	DPIndirectLong
	DPIndirectIndexedY
	DPIndirectLongIndexedY
	DPIndexedIndirectX
	StackRelative
	SRIndirectIndexedY
	ProgramCounterRelative
	ProgramCounterRelativeLong
	StackPCRelativeLong
	StackDPIndirect
	BlockMove
	LongPointer
)

func (m Mode) String() string {
	switch m {
	case Implied:
		return "Implied"
	case Accumulator:
		return "Accumulator"
	case Immediate:
		return "Immediate"
	case ImmediateXY:
		return "ImmediateXY"
	case ImmediateSEP:
		return "ImmediateSEP"
	case ImmediateREP:
		return "ImmediateREP"
	case Absolute:
		return "Absolute"
	case AbsoluteLong:
		return "AbsoluteLong"
	case AbsoluteIndexedX:
		return "AbsoluteIndexedX"
	case AbsoluteIndexedY:
		return "AbsoluteIndexedY"
	case AbsoluteLongIndexedX:
		return "AbsoluteLongIndexedX"
	case AbsoluteIndirect:
		return "AbsoluteIndirect"
	case AbsoluteIndirectLong:
		return "AbsoluteIndirectLong"
	case AbsoluteIndexedIndirect:
		return "AbsoluteIndexedIndirect"
	case DirectPage:
		return "DirectPage"
	case DPIndexedX:
		return "DPIndexedX"
	case DPIndexedY:
		return "DPIndexedY"
	case DPIndirect:
		return "DPIndirect"
	case DPIndirectLong:
		return "DPIndirectLong"
	case DPIndirectIndexedY:
		return "DPIndirectIndexedY"
	case DPIndirectLongIndexedY:
		return "DPIndirectLongIndexedY"
	case DPIndexedIndirectX:
		return "DPIndexedIndirectX"
	case StackRelative:
		return "StackRelative"
	case SRIndirectIndexedY:
		return "SRIndirectIndexedY"
	case ProgramCounterRelative:
		return "ProgramCounterRelative"
	case ProgramCounterRelativeLong:
		return "ProgramCounterRelativeLong"
	case StackPCRelativeLong:
		return "StackPCRelativeLong"
	case StackDPIndirect:
		return "StackDPIndirect"
	case BlockMove:
		return "BlockMove"
	case LongPointer:
		return "LongPointer"
	default:
		return "Unknown"
	}
}
