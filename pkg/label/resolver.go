// Package label implements the two-pass fixed-point label resolver: pass 1
// discovers every label actually referenced while decoding, pass 2 only
// emits labels that survived pass 1.
package label

import (
	"fmt"
	"io"
	"sort"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/byteprop"
)

// Phase is one of the two explicit resolver phases, a named type rather
// than a bare pass number. The resolver keeps its current phase in a field
// set by BeginPass1/BeginPass2; Resolve and ResolveLineLabel accept calls in
// either phase and branch on that field.
type Phase int

const (
	Discovering Phase = iota
	Emitting
)

// Resolver is request-scoped: constructed fresh per Request, reset between
// passes via BeginPass1/BeginPass2.
type Resolver struct {
	Props            *byteprop.Map
	Start, End       addr.Addr24 // half-open [Start, End) range of the current request
	UseExternSymbols bool
	HiROM            bool
	RAMLookup        map[addr.Addr24]string
	Diag             io.Writer

	phase           Phase
	usedLabelLookup map[addr.Addr24]string
	unresolved      map[addr.Addr24]string
}

// NewResolver constructs a Resolver for one Request's [start, end) range.
func NewResolver(props *byteprop.Map, start, end addr.Addr24, useExternSymbols, hirom bool) *Resolver {
	return &Resolver{
		Props:            props,
		Start:            start,
		End:              end,
		UseExternSymbols: useExternSymbols,
		HiROM:            hirom,
		RAMLookup:        map[addr.Addr24]string{},
		usedLabelLookup:  map[addr.Addr24]string{},
		unresolved:       map[addr.Addr24]string{},
	}
}

// BeginPass1 resets the discovered-label set and enters the Discovering
// phase; the set is cleared at the start of every pass 1.
func (r *Resolver) BeginPass1() {
	r.phase = Discovering
	r.usedLabelLookup = map[addr.Addr24]string{}
}

// BeginPass2 enters the Emitting phase. usedLabelLookup is left untouched
// so pass 2 can read exactly what pass 1 discovered.
func (r *Resolver) BeginPass2() {
	r.phase = Emitting
}

// Phase reports the resolver's current phase.
func (r *Resolver) Phase() Phase {
	return r.phase
}

func (r *Resolver) markUsed(key addr.Addr24, label string) {
	r.usedLabelLookup[key] = label
}

// Resolve implements decoder.Resolver. It resolves an operand's target
// address in both pass 1 (discovery) and pass 2 (emission); a record's own
// line label goes through ResolveLineLabel instead.
func (r *Resolver) Resolve(key addr.Addr24, isBranch bool) string {
	bank, addr16 := addr.Split(key)
	bank = addr.NormalizeWRAMBank(bank, addr16)
	key = addr.Join(bank, addr16)
	isExtern := key < r.Start || key >= r.End
	if isExtern && !r.UseExternSymbols {
		return ""
	}

	var label string
	if r.phase == Emitting {
		// Pass 2: only previously-discovered labels are ever returned.
		label = r.usedLabelLookup[key]
	} else {
		idx := addr.ToIndexAddr24(key, r.HiROM)
		entry := r.Props.At(idx)
		switch {
		case entry.Label != "":
			label = entry.Label
			r.markUsed(key, label)
		case (addr16 >= 0x8000 || isBranch) && bank < 0x7E:
			label = fmt.Sprintf("ADDR_%02X%04X", bank, addr16)
			r.markUsed(key, label)
		case addr16 < 0x8000:
			if l, ok := r.RAMLookup[key]; ok {
				label = l
			}
		}
	}

	if label != "" && isExtern {
		r.unresolved[key] = label
	}
	return label
}

// ResolveLineLabel resolves the label printed at the head of an
// Instruction/Data record's own line, as opposed to an operand's effective
// address (Resolve). A line never synthesizes its own ADDR_ label: that
// only ever happens when some other instruction's operand actually
// references this address (Resolve, during Discovering). Here, Discovering
// reads only a pre-existing B[i].label; Emitting reads whatever Discovering
// recorded as used. This is what keeps an unreferenced instruction's own
// address unlabeled (scenario: a plain run of NOPs prints with no labels at
// all, even though every one of them sits at addr16>=0x8000).
func (r *Resolver) ResolveLineLabel(key addr.Addr24) string {
	bank, addr16 := addr.Split(key)
	bank = addr.NormalizeWRAMBank(bank, addr16)
	key = addr.Join(bank, addr16)
	isExtern := key < r.Start || key >= r.End
	if isExtern && !r.UseExternSymbols {
		return ""
	}

	var label string
	if r.phase == Emitting {
		label = r.usedLabelLookup[key]
	} else {
		idx := addr.ToIndexAddr24(key, r.HiROM)
		entry := r.Props.At(idx)
		switch {
		case entry.Label != "":
			label = entry.Label
			r.markUsed(key, label)
		case addr16 < 0x8000:
			if l, ok := r.RAMLookup[key]; ok {
				label = l
			}
		}
	}

	if label != "" && isExtern {
		r.unresolved[key] = label
	}
	return label
}

// UnresolvedReport renders the unresolved-symbol diagnostic printed once a
// request completes. Empty string if nothing to report.
func (r *Resolver) UnresolvedReport() string {
	if len(r.unresolved) == 0 {
		return ""
	}
	keys := make([]addr.Addr24, 0, len(r.unresolved))
	for k := range r.unresolved {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out string
	for _, k := range keys {
		bank, addr16 := addr.Split(k)
		out += fmt.Sprintf("unresolved external symbol %s referenced at $%02X:%04X\n", r.unresolved[k], bank, addr16)
	}
	return out
}

// Clear drops the unresolved set, called once its report has been printed
// at the end of a completed request.
func (r *Resolver) Clear() {
	r.unresolved = map[addr.Addr24]string{}
}
