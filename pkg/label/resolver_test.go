package label

import (
	"testing"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/byteprop"
)

func TestTwoPassOnlyEmitsUsedLabels(t *testing.T) {
	props := byteprop.New(false)
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)

	target := addr.Join(0, 0x8000) // BRA to self, branch, sub-0x8000? no it's >=0x8000
	r.BeginPass1()
	got := r.Resolve(target, true)
	if got != "ADDR_008000" {
		t.Fatalf("pass1 resolve = %q, want ADDR_008000", got)
	}

	r.BeginPass2()
	got2 := r.Resolve(target, true)
	if got2 != got {
		t.Fatalf("pass2 resolve = %q, want %q", got2, got)
	}

	// A key that was never referenced in pass 1 must not be emitted in pass 2.
	other := addr.Join(0, 0x8008)
	if got3 := r.Resolve(other, true); got3 != "" {
		t.Fatalf("pass2 resolve of unreferenced key = %q, want empty", got3)
	}
}

func TestUserLabelWinsOverSynthetic(t *testing.T) {
	props := byteprop.New(false)
	target := addr.Join(0, 0x8004)
	props.SetLabel(addr.ToIndexAddr24(target, false), "MYLABEL")

	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)
	r.BeginPass1()
	if got := r.Resolve(target, false); got != "MYLABEL" {
		t.Errorf("resolve = %q, want MYLABEL", got)
	}
}

func TestExternReferenceWithoutUseExternReturnsEmpty(t *testing.T) {
	props := byteprop.New(false)
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)
	r.BeginPass1()
	outside := addr.Join(0, 0x9000)
	if got := r.Resolve(outside, true); got != "" {
		t.Errorf("resolve outside range = %q, want empty (use_extern_symbols=false)", got)
	}
}

func TestExternReferenceWithUseExternRecordsUnresolved(t *testing.T) {
	props := byteprop.New(false)
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), true, false)
	r.BeginPass1()
	outside := addr.Join(0, 0x9000)
	got := r.Resolve(outside, true)
	if got == "" {
		t.Fatal("expected a synthesized label for extern reference with use_extern_symbols=true")
	}
	if report := r.UnresolvedReport(); report == "" {
		t.Error("expected a non-empty unresolved report")
	}
}

func TestNonBranchBelow0x8000WithoutRAMLabelReturnsEmpty(t *testing.T) {
	props := byteprop.New(false)
	// use_extern_symbols on, so the out-of-range RAM key reaches the RAM lookup.
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), true, false)
	r.BeginPass1()
	ramAddr := addr.Join(0x7E, 0x0010)
	if got := r.Resolve(ramAddr, false); got != "" {
		t.Errorf("resolve = %q, want empty (no RAM lookup entry, not a branch)", got)
	}
}

func TestRAMLookupUsedForNonBranch(t *testing.T) {
	props := byteprop.New(false)
	// use_extern_symbols on, so the out-of-range RAM key reaches the RAM lookup.
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), true, false)
	ramAddr := addr.Join(0x7E, 0x0010)
	r.RAMLookup[ramAddr] = "RAM_0010"
	r.BeginPass1()
	if got := r.Resolve(ramAddr, false); got != "RAM_0010" {
		t.Errorf("resolve = %q, want RAM_0010", got)
	}
}

func TestResolveLineLabelNeverSynthesizes(t *testing.T) {
	props := byteprop.New(false)
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)
	target := addr.Join(0, 0x8004) // plain ROM address, no B[i].label set

	r.BeginPass1()
	if got := r.ResolveLineLabel(target); got != "" {
		t.Errorf("pass1 line label = %q, want empty: a line never synthesizes its own ADDR_ label", got)
	}
	r.BeginPass2()
	if got := r.ResolveLineLabel(target); got != "" {
		t.Errorf("pass2 line label = %q, want empty: nothing ever marked it used", got)
	}
}

func TestResolveLineLabelSeesOwnAddressDiscoveredAsOperandTarget(t *testing.T) {
	props := byteprop.New(false)
	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)
	self := addr.Join(0, 0x8000)

	r.BeginPass1()
	// Some other instruction's operand resolves to this instruction's own
	// address (e.g. a self-branch), discovering it as ADDR_008000.
	if got := r.Resolve(self, true); got != "ADDR_008000" {
		t.Fatalf("Resolve = %q, want ADDR_008000", got)
	}
	if got := r.ResolveLineLabel(self); got != "" {
		t.Errorf("pass1 line label = %q, want empty: pass 1 only reads a pre-existing B[i].label", got)
	}

	r.BeginPass2()
	if got := r.ResolveLineLabel(self); got != "ADDR_008000" {
		t.Errorf("pass2 line label = %q, want ADDR_008000 (surfaced via usedLabelLookup)", got)
	}
}

func TestResolveLineLabelReadsUserLabelDuringDiscovering(t *testing.T) {
	props := byteprop.New(false)
	target := addr.Join(0, 0x8004)
	props.SetLabel(addr.ToIndexAddr24(target, false), "MYLABEL")

	r := NewResolver(props, addr.Join(0, 0x8000), addr.Join(0, 0x8010), false, false)
	r.BeginPass1()
	if got := r.ResolveLineLabel(target); got != "MYLABEL" {
		t.Errorf("line label = %q, want MYLABEL", got)
	}
}
