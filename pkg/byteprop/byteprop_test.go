package byteprop

import (
	"bytes"
	"testing"
)

func TestNewSeedsDataBankHint(t *testing.T) {
	m := New(false)
	if got := m.At(0).DataBankHint; got != 0 {
		t.Errorf("bank hint at 0 = %d, want 0", got)
	}
	if got := m.At(0x8000).DataBankHint; got != 1 {
		t.Errorf("bank hint at 0x8000 (lorom) = %d, want 1", got)
	}
}

func TestSetLabelConflict(t *testing.T) {
	var diag bytes.Buffer
	m := New(false)
	m.Diag = &diag
	m.SetLabel(10, "FIRST")
	m.SetLabel(10, "SECOND")
	if got := m.At(10).Label; got != "FIRST" {
		t.Errorf("label = %q, want FIRST (first-wins)", got)
	}
	if diag.Len() == 0 {
		t.Error("expected a conflict diagnostic to be written")
	}
}

func TestSetClassificationRange(t *testing.T) {
	m := New(false)
	m.SetClassificationRange(100, 104, RawData)
	for i := 100; i < 104; i++ {
		if m.At(i).Classification != RawData {
			t.Errorf("index %d classification = %v, want RawData", i, m.At(i).Classification)
		}
	}
	if m.At(104).Classification != Code {
		t.Error("index 104 should remain Code (exclusive end)")
	}
}

func TestOutOfRangeReadsAreSafe(t *testing.T) {
	m := New(false)
	if got := m.At(-1); got.Classification != Code {
		t.Errorf("out of range At returns non-zero entry: %+v", got)
	}
	m.SetLabel(-1, "x") // must not panic
}
