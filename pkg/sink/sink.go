// Package sink defines the pluggable output capability and a plain-text
// reference implementation. The engine makes no assumption about
// rendering: every record handed to a Sink is fully self-describing.
package sink

import (
	"fmt"
	"io"

	"github.com/snesdev/disasm65816/pkg/decoder"
)

// Sink receives structured disassembly records in stream order. Multiple
// implementations may be plugged in; the engine never reorders calls.
type Sink interface {
	PassStart(pass int)
	BankStart(bank uint8)
	CodeBlockStart()
	CodeBlockEnd()
	DataBlockStart()
	DataBlockEnd()
	PtrBlockStart()
	PtrBlockEnd()
	PrintInstruction(instr decoder.Instruction, label, comment string, verbose bool, flagShadow uint8)
	PrintData(bytes []uint8, label, comment string, verbose bool, endOfChunk bool)
}

// PlainText is a straightforward assembly-listing sink: one logical line
// per Instruction/Data record, `.bank $bb` directives at bank boundaries,
// `.db` lines for data.
type PlainText struct {
	W io.Writer
}

// NewPlainText wraps w as a PlainText sink.
func NewPlainText(w io.Writer) *PlainText {
	return &PlainText{W: w}
}

func (p *PlainText) PassStart(pass int) {
	fmt.Fprintf(p.W, "; --- pass %d ---\n", pass)
}

func (p *PlainText) BankStart(bank uint8) {
	fmt.Fprintf(p.W, ".bank $%02X\n", bank)
}

func (p *PlainText) CodeBlockStart() {}
func (p *PlainText) CodeBlockEnd()   {}
func (p *PlainText) DataBlockStart() {}
func (p *PlainText) DataBlockEnd()   {}
func (p *PlainText) PtrBlockStart()  {}
func (p *PlainText) PtrBlockEnd()    {}

func (p *PlainText) PrintInstruction(instr decoder.Instruction, label, comment string, verbose bool, flagShadow uint8) {
	line := ""
	if label != "" {
		line += label + ": "
	}
	line += instr.Mnemonic
	if instr.OperandText != "" {
		line += " " + instr.OperandText
	}
	if verbose && comment != "" {
		line += " ; " + comment
	}
	fmt.Fprintln(p.W, line)
}

func (p *PlainText) PrintData(bytes []uint8, label, comment string, verbose bool, endOfChunk bool) {
	line := ""
	if label != "" {
		line += label + ": "
	}
	line += ".db "
	for i, b := range bytes {
		if i > 0 {
			line += ", "
		}
		line += fmt.Sprintf("$%02X", b)
	}
	if verbose && comment != "" {
		line += " ; " + comment
	}
	fmt.Fprintln(p.W, line)
}
