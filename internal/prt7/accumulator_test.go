package prt7

import "testing"

func TestAccumulator_AppendPreservesOrder(t *testing.T) {
	a := NewAccumulator()
	for _, r := range "HOLA MUNDO" {
		a.Append(r)
	}

	if got := a.Snapshot(); got != "HOLA MUNDO" {
		t.Errorf("Snapshot() = %q, want %q", got, "HOLA MUNDO")
	}
	if got := a.Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
}

func TestAccumulator_SnapshotDoesNotMutate(t *testing.T) {
	a := NewAccumulator()
	a.Append('H')
	a.Append('I')

	first := a.Snapshot()
	second := a.Snapshot()
	if first != second {
		t.Errorf("repeated snapshots differ: %q vs %q", first, second)
	}
	if a.Len() != 2 {
		t.Errorf("Len() after snapshots = %d, want 2", a.Len())
	}
}

func TestAccumulator_Brackets(t *testing.T) {
	a := NewAccumulator()
	if got := a.Brackets(); got != "" {
		t.Errorf("Brackets() on empty accumulator = %q, want empty", got)
	}

	for _, r := range "HO A" {
		a.Append(r)
	}
	if got := a.Brackets(); got != "[H][O][ ][A]" {
		t.Errorf("Brackets() = %q, want %q", got, "[H][O][ ][A]")
	}
}
