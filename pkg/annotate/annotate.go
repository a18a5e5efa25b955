// Package annotate parses the plain-text sidecar annotation formats into a
// byteprop.Map, plus a supplemented alternate symbol format.
//
// All formats share the same lexical conventions: `#`- or `;`-prefixed
// lines and blank lines are ignored, fields are whitespace-separated, and
// addresses/hex values are plain hex digits (no "0x" prefix, matching the
// sidecar files' own convention).
package annotate

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/byteprop"
)

func isIgnorable(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, ";")
}

func parseAddr24(tok string) (addr.Addr24, error) {
	v, err := strconv.ParseUint(tok, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", tok, err)
	}
	return addr.Addr24(v), nil
}

func parseInt(tok string) (int, error) {
	v, err := strconv.ParseInt(tok, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad hex value %q: %w", tok, err)
	}
	return int(v), nil
}

func diagf(diag io.Writer, format string, args ...any) {
	if diag != nil {
		fmt.Fprintf(diag, format, args...)
	}
}

// getDataAddress bumps a short-form address below 0x8000 up into ROM space:
// the data/comment/databank sidecar formats let an address omit the $8000
// high bit, and every consumer of it treats an un-bumped value as a bug.
func getDataAddress(a addr.Addr24) addr.Addr24 {
	bank, addr16 := addr.Split(a)
	if addr16 < 0x8000 {
		addr16 += 0x8000
	}
	return addr.Join(bank, addr16)
}

// LoadSymbols parses the primary `addr24 [label]` symbol format, applying
// the WRAM-mirror bank remap and synthesizing a default label when one is
// omitted. Fail-soft: a malformed line is skipped with a diagnostic.
func LoadSymbols(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		key, err := parseAddr24(fields[0])
		if err != nil {
			diagf(diag, "symbols:%d: %v, skipping\n", lineNo, err)
			continue
		}
		bank, addr16 := addr.Split(key)
		bank = addr.NormalizeWRAMBank(bank, addr16)
		key = addr.Join(bank, addr16)

		label := ""
		if len(fields) >= 2 {
			label = fields[1]
		} else if addr16 < 0x8000 {
			label = fmt.Sprintf("RAM_%04X", addr16)
		} else {
			label = fmt.Sprintf("CODE_%02X%04X", bank, addr16)
		}
		props.SetLabel(addr.ToIndexAddr24(key, hirom), label)
	}
	return sc.Err()
}

// LoadSymbolsAlt parses an alternate two-column symbol format (`addr24
// label`): no WRAM bank remap and no synthesized default label. A line
// missing its label column has no fallback, so it is fail-soft skipped with
// a diagnostic rather than silently mislabeled.
func LoadSymbolsAlt(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			diagf(diag, "symbols2:%d: missing label column, skipping\n", lineNo)
			continue
		}
		key, err := parseAddr24(fields[0])
		if err != nil {
			diagf(diag, "symbols2:%d: %v, skipping\n", lineNo, err)
			continue
		}
		props.SetLabel(addr.ToIndexAddr24(key, hirom), fields[1])
	}
	return sc.Err()
}

// LoadData parses the `start_addr24 [end_addr24] [flag [label]]` data
// format. Malformed pointer-size flags are fatal: they would misalign
// subsequent bytes in a pointer table.
func LoadData(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		start, err := parseAddr24(fields[0])
		if err != nil {
			diagf(diag, "data:%d: %v, skipping\n", lineNo, err)
			continue
		}
		start = getDataAddress(start)
		end := start + 1
		if len(fields) >= 2 {
			e, err := parseAddr24(fields[1])
			if err != nil {
				diagf(diag, "data:%d: %v, skipping\n", lineNo, err)
				continue
			}
			end = getDataAddress(e)
		}

		classification := byteprop.RawData
		prefix := "DATA_"
		if len(fields) >= 3 {
			flag, err := strconv.Atoi(fields[2])
			if err != nil || flag < 1 || flag > 3 {
				return fmt.Errorf("data:%d: invalid pointer-size flag %q", lineNo, fields[2])
			}
			switch flag {
			case 1:
				classification, prefix = byteprop.RawData, "DATA_"
			case 2:
				classification, prefix = byteprop.ShortPointer, "Ptrs"
			case 3:
				classification, prefix = byteprop.LongPointer, "PtrsLong"
			}
		}

		label := ""
		if len(fields) >= 4 {
			label = fields[3]
		} else {
			bank, addr16 := addr.Split(start)
			label = fmt.Sprintf("%s%02X%04X", prefix, bank, addr16)
		}

		startIdx := addr.ToIndexAddr24(start, hirom)
		endIdx := addr.ToIndexAddr24(end, hirom)
		props.SetClassificationRange(startIdx, endIdx, classification)
		props.SetLabel(startIdx, label)
	}
	return sc.Err()
}

// LoadDataBanks parses `start end data_bank` lines, setting the data-bank
// hint across [start, end). Fail-soft.
func LoadDataBanks(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			diagf(diag, "databanks:%d: expected 3 fields, skipping\n", lineNo)
			continue
		}
		start, err1 := parseAddr24(fields[0])
		end, err2 := parseAddr24(fields[1])
		bankVal, err3 := parseInt(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			diagf(diag, "databanks:%d: malformed line, skipping\n", lineNo)
			continue
		}
		start, end = getDataAddress(start), getDataAddress(end)
		props.SetDataBankHint(addr.ToIndexAddr24(start, hirom), addr.ToIndexAddr24(end, hirom), uint8(bankVal))
	}
	return sc.Err()
}

// LoadComments parses `addr24 text...` lines, attaching a comment to one
// byte. Fail-soft, first-value-wins on conflict (handled by byteprop.Map).
func LoadComments(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
		if len(fields) < 2 {
			diagf(diag, "comments:%d: missing comment text, skipping\n", lineNo)
			continue
		}
		key, err := parseAddr24(fields[0])
		if err != nil {
			diagf(diag, "comments:%d: %v, skipping\n", lineNo, err)
			continue
		}
		key = getDataAddress(key)
		props.SetComment(addr.ToIndexAddr24(key, hirom), strings.TrimSpace(fields[1]))
	}
	return sc.Err()
}

// LoadOffsets parses `addr24 offset` lines, setting load_offset. Malformed
// offsets are fatal: they would misalign the "label + offset" rewrite.
func LoadOffsets(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("offsets:%d: expected \"addr offset\"", lineNo)
		}
		key, err := parseAddr24(fields[0])
		if err != nil {
			return fmt.Errorf("offsets:%d: %w", lineNo, err)
		}
		offset, err := strconv.ParseInt(fields[1], 16, 32)
		if err != nil {
			return fmt.Errorf("offsets:%d: bad offset %q: %w", lineNo, fields[1], err)
		}
		props.SetLoadOffset(addr.ToIndexAddr24(key, hirom), int(offset))
	}
	return sc.Err()
}

// LoadAccumWidths parses `addr24 tag bytes` lines where tag is one of
// A, I, AI, IA and bytes is 8 or 16, setting reset_accum_to/reset_index_to.
// Fail-soft.
func LoadAccumWidths(props *byteprop.Map, r io.Reader, hirom bool, diag io.Writer) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isIgnorable(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			diagf(diag, "accum-widths:%d: expected 3 fields, skipping\n", lineNo)
			continue
		}
		key, err := parseAddr24(fields[0])
		if err != nil {
			diagf(diag, "accum-widths:%d: %v, skipping\n", lineNo, err)
			continue
		}
		bits, err := strconv.Atoi(fields[2])
		if err != nil || (bits != 8 && bits != 16) {
			diagf(diag, "accum-widths:%d: invalid width %q, skipping\n", lineNo, fields[2])
			continue
		}
		w := byteprop.Width8
		if bits == 16 {
			w = byteprop.Width16
		}
		idx := addr.ToIndexAddr24(key, hirom)
		switch strings.ToUpper(fields[1]) {
		case "A":
			props.SetResetAccum(idx, w)
		case "I":
			props.SetResetIndex(idx, w)
		case "AI", "IA":
			props.SetResetAccum(idx, w)
			props.SetResetIndex(idx, w)
		default:
			diagf(diag, "accum-widths:%d: unknown tag %q, skipping\n", lineNo, fields[1])
		}
	}
	return sc.Err()
}
