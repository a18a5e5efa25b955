package disasm

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/byteprop"
	"github.com/snesdev/disasm65816/pkg/decoder"
	"github.com/snesdev/disasm65816/pkg/label"
	"github.com/snesdev/disasm65816/pkg/opcode"
	"github.com/snesdev/disasm65816/pkg/romsrc"
	"github.com/snesdev/disasm65816/pkg/sink"
)

// defaultBytesPerLine is the Dcb line width when Request.BytesPerLine is
// unset (DESIGN.md Open Question 3).
const defaultBytesPerLine = 16

// Engine owns the shared byte-property map and ROM byte source, and
// dispatches Requests against them. A single Engine instance is reused
// across every Request in a run: the byte-property map is allocated once
// for the whole address space and retained for the process lifetime.
type Engine struct {
	Props      *byteprop.Map
	Src        romsrc.Source
	Sink       sink.Sink
	HiROM      bool
	Diag       io.Writer
	RAMLookup  map[addr.Addr24]string

	// Cursor holds the address currently being emitted, updated as each
	// instruction/data/pointer record is produced. A caller running
	// HandleRequest on another goroutine can poll it (e.g. from a
	// time.Ticker) to print progress on a long Smart request without the
	// engine itself knowing anything about progress reporting.
	Cursor atomic.Uint64
}

// NewEngine constructs an Engine over the given byte-property map, ROM
// source, and output sink.
func NewEngine(props *byteprop.Map, src romsrc.Source, snk sink.Sink, hirom bool, diag io.Writer) *Engine {
	return &Engine{
		Props:     props,
		Src:       src,
		Sink:      snk,
		HiROM:     hirom,
		Diag:      diag,
		RAMLookup: map[addr.Addr24]string{},
	}
}

func (e *Engine) diagf(format string, args ...any) {
	if e.Diag != nil {
		fmt.Fprintf(e.Diag, format, args...)
	}
}

// HandleRequest is the engine's entry point. Quit requests are a no-op
// here; dispatching Quit out of a request stream is the CLI/REPL driver's
// concern, out of scope for the engine itself.
func (e *Engine) HandleRequest(req Request) error {
	if req.Type == Quit {
		return nil
	}

	start := addr.Join(req.StartBank, req.StartAddr)
	end := addr.Join(req.EndBank, req.EndAddr)

	passes := req.Properties.Passes
	if passes <= 0 {
		passes = 1
	}

	resolver := label.NewResolver(e.Props, start, end, req.Properties.UseExternSymbols, e.HiROM)
	resolver.RAMLookup = e.RAMLookup

	currentPass := 1
	for {
		if err := e.Src.Seek(int64(addr.ToIndexAddr24(start, e.HiROM))); err != nil {
			return err
		}
		state := &decoder.State{
			Bank:    req.StartBank,
			Addr16:  req.StartAddr,
			HiROM:   e.HiROM,
			Accum16: req.Properties.StartAccum16,
			Index16: req.Properties.StartIndex16,
		}

		if currentPass == 1 {
			resolver.BeginPass1()
		} else {
			resolver.BeginPass2()
		}
		e.Sink.PassStart(currentPass)

		var err error
		switch req.Type {
		case Asm:
			err = e.doAsm(state, resolver, end, req.Properties)
		case Dcb:
			bpl := req.BytesPerLine
			if bpl <= 0 {
				bpl = defaultBytesPerLine
			}
			err = e.doDcb(state, resolver, end, bpl, req.Properties)
		case Ptr:
			err = e.doPtr(state, resolver, end, false, req.Properties)
		case PtrLong:
			err = e.doPtr(state, resolver, end, true, req.Properties)
		case Smart:
			err = e.doSmart(state, resolver, end, req)
		}
		if err != nil {
			return err
		}

		currentPass++
		if req.Type != Smart || currentPass > passes {
			break
		}
	}

	if report := resolver.UnresolvedReport(); report != "" {
		e.diagf("%s", report)
	}
	resolver.Clear()
	return nil
}

// doAsm implements the Asm state machine: resolve this line's label, read
// one opcode byte, decode its operand, then print the resulting line.
func (e *Engine) doAsm(state *decoder.State, resolver *label.Resolver, end addr.Addr24, props Properties) error {
	e.Sink.CodeBlockStart()
	defer e.Sink.CodeBlockEnd()

	for state.Address() < end {
		e.Cursor.Store(uint64(state.Address()))
		if state.IsBankStart() {
			e.Sink.BankStart(state.Bank)
		}

		idx := state.Index()
		entry := e.Props.At(idx)

		// Width resets apply before the opcode byte is read, so the width
		// flags are correct before any operand byte is interpreted.
		state.ApplyWidthResets(int(entry.ResetAccumTo), int(entry.ResetIndexTo))
		state.ProcFlagShadow = 0

		lineLabel := resolver.ResolveLineLabel(state.Address())

		opByte, err := e.Src.ReadByte()
		if err != nil {
			e.Sink.PrintInstruction(decoder.Instruction{Mnemonic: "; End of file."}, "", "", !props.Quiet, 0)
			return nil
		}
		state.Advance()

		instr, err := decoder.Decode(state, e.Src, resolver, entry.DataBankHint, opcode.OpCode(opByte))
		if err != nil && err != io.EOF {
			return err
		}
		applyLoadOffset(&instr, entry.LoadOffset, resolver)

		e.Sink.PrintInstruction(instr, lineLabel, entry.Comment, !props.Quiet, state.ProcFlagShadow)

		if err == io.EOF {
			return nil
		}
		if props.StopAtRTS && opcode.Catalog[opcode.OpCode(opByte)].IsReturn {
			return nil
		}
	}
	return nil
}

// applyLoadOffset implements the byte-property load_offset rule: when
// nonzero, the operand's effective-address text is rewritten as
// "label+offset"/"label-offset", where the label is resolved against the
// stored target (the operand's resolved address minus the offset) rather
// than the raw operand value.
func applyLoadOffset(instr *decoder.Instruction, offset int, resolver *label.Resolver) {
	if offset == 0 || !instr.HasTarget {
		return
	}
	storedTarget := instr.Target - addr.Addr24(offset)
	base := resolver.Resolve(storedTarget, opcode.Catalog[instr.Op].IsBranch)
	if base == "" {
		return
	}
	if offset > 0 {
		instr.OperandText = fmt.Sprintf("%s+%d", base, offset)
	} else {
		instr.OperandText = fmt.Sprintf("%s-%d", base, -offset)
	}
}

// doDcb packs bytes into .db-style lines, flushing a chunk whenever a new
// label appears mid-chunk, the bank boundary is crossed, or the line fills up.
func (e *Engine) doDcb(state *decoder.State, resolver *label.Resolver, end addr.Addr24, bytesPerLine int, props Properties) error {
	e.Sink.DataBlockStart()
	defer e.Sink.DataBlockEnd()

	var chunk []uint8
	var chunkLabel, chunkComment string

	flush := func(endOfChunk bool) {
		if len(chunk) == 0 {
			return
		}
		e.Sink.PrintData(chunk, chunkLabel, chunkComment, !props.Quiet, endOfChunk)
		chunk = nil
		chunkLabel, chunkComment = "", ""
	}

	for state.Address() < end {
		e.Cursor.Store(uint64(state.Address()))
		if state.IsBankStart() {
			flush(true)
			e.Sink.BankStart(state.Bank)
		}

		entry := e.Props.At(state.Index())
		lineLabel := resolver.ResolveLineLabel(state.Address())
		if lineLabel != "" && len(chunk) > 0 {
			// A label on a non-leading byte forces the chunk to end here.
			flush(true)
		}
		if len(chunk) == 0 {
			chunkLabel = lineLabel
		}
		if entry.Comment != "" {
			if chunkComment == "" {
				chunkComment = entry.Comment
			} else {
				chunkComment += "; " + entry.Comment
			}
		}

		b, err := e.Src.ReadByte()
		if err != nil {
			flush(true)
			return nil
		}
		state.Advance()
		chunk = append(chunk, b)

		if len(chunk) >= bytesPerLine {
			flush(true)
		}
	}
	flush(true)
	return nil
}

// doPtr fabricates the synthetic PtrShort/PtrLong pseudo-opcode so pointer
// tables are rendered through the same instruction pipeline as code.
func (e *Engine) doPtr(state *decoder.State, resolver *label.Resolver, end addr.Addr24, isLong bool, props Properties) error {
	e.Sink.PtrBlockStart()
	defer e.Sink.PtrBlockEnd()

	op := opcode.PtrShort
	if isLong {
		op = opcode.PtrLong
	}

	for state.Address() < end {
		e.Cursor.Store(uint64(state.Address()))
		if state.IsBankStart() {
			e.Sink.BankStart(state.Bank)
		}
		entry := e.Props.At(state.Index())
		lineLabel := resolver.ResolveLineLabel(state.Address())
		instr, err := decoder.Decode(state, e.Src, resolver, entry.DataBankHint, op)
		if err != nil {
			return nil
		}
		e.Sink.PrintInstruction(instr, lineLabel, entry.Comment, !props.Quiet, 0)
	}
	return nil
}

// doSmart partitions [state.Address(), end) into maximal runs of identical
// classification and dispatches each run to the matching raw emitter.
func (e *Engine) doSmart(state *decoder.State, resolver *label.Resolver, end addr.Addr24, req Request) error {
	for state.Address() < end {
		runClass := e.Props.At(state.Index()).Classification
		runStartBank, runStartAddr := state.Bank, state.Addr16

		bank, addr16 := state.Bank, state.Addr16
		for addr.Join(bank, addr16) < end && e.Props.At(addr.ToIndex(bank, addr16, e.HiROM)).Classification == runClass {
			bank, addr16 = addr.Advance(bank, addr16, e.HiROM)
		}
		runEnd := addr.Join(bank, addr16)

		// The scan above only moved the logical cursor; reseek the physical
		// source to match, since the previous run's emitter may have read
		// past runEnd (an instruction straddling the boundary).
		state.Bank, state.Addr16 = runStartBank, runStartAddr
		if err := e.Src.Seek(int64(addr.ToIndex(runStartBank, runStartAddr, e.HiROM))); err != nil {
			return err
		}

		var err error
		switch runClass {
		case byteprop.Code:
			err = e.doAsm(state, resolver, runEnd, req.Properties)
		case byteprop.RawData:
			bpl := req.BytesPerLine
			if bpl <= 0 {
				bpl = defaultBytesPerLine
			}
			err = e.doDcb(state, resolver, runEnd, bpl, req.Properties)
		case byteprop.ShortPointer:
			err = e.doPtr(state, resolver, runEnd, false, req.Properties)
		case byteprop.LongPointer:
			err = e.doPtr(state, resolver, runEnd, true, req.Properties)
		}
		if err != nil {
			return err
		}

		// A sub-emitter may have stopped early (stop_at_rts, EOF); force
		// the cursor to the run boundary so partitioning keeps progressing.
		state.Bank, state.Addr16 = bank, addr16
	}
	return nil
}
