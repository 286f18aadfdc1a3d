package sortspec

import (
	"reflect"
	"testing"
)

func TestStateCycle(t *testing.T) {
	if Unsorted.Next() != Ascending || Ascending.Next() != Descending || Descending.Next() != Unsorted {
		t.Fatalf("unexpected state cycle")
	}
	if Ascending.String() != "asc" || Descending.String() != "desc" || Unsorted.String() != "unsorted" {
		t.Fatalf("unexpected state names")
	}
}

func TestToggleCycle(t *testing.T) {
	var spec Spec

	spec = spec.Toggle(ColumnCreditsUsed)
	if !reflect.DeepEqual(spec, Spec{{ColumnCreditsUsed, Asc}}) {
		t.Fatalf("first toggle: %v", spec)
	}
	spec = spec.Toggle(ColumnCreditsUsed)
	if !reflect.DeepEqual(spec, Spec{{ColumnCreditsUsed, Desc}}) {
		t.Fatalf("second toggle: %v", spec)
	}
	spec = spec.Toggle(ColumnCreditsUsed)
	if len(spec) != 0 {
		t.Fatalf("third toggle should clear, got %v", spec)
	}
}

func TestToggleAppendsAndKeepsPositions(t *testing.T) {
	spec := Spec{{ColumnCreditsUsed, Asc}}

	spec = spec.Toggle(ColumnReportName)
	want := Spec{{ColumnCreditsUsed, Asc}, {ColumnReportName, Asc}}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("new column should append: %v", spec)
	}

	spec = spec.Toggle(ColumnCreditsUsed)
	want = Spec{{ColumnCreditsUsed, Desc}, {ColumnReportName, Asc}}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("flip should keep position: %v", spec)
	}

	spec = spec.Toggle(ColumnCreditsUsed)
	want = Spec{{ColumnReportName, Asc}}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("removal should keep the rest: %v", spec)
	}

	spec = spec.Toggle(ColumnCreditsUsed)
	want = Spec{{ColumnReportName, Asc}, {ColumnCreditsUsed, Asc}}
	if !reflect.DeepEqual(spec, want) {
		t.Fatalf("reactivated column should go last: %v", spec)
	}
}

func TestToggleDoesNotMutateInput(t *testing.T) {
	original := Spec{{ColumnCreditsUsed, Asc}, {ColumnReportName, Desc}}
	snapshot := original.Clone()
	_ = original.Toggle(ColumnCreditsUsed)
	_ = original.Toggle(ColumnReportName)
	if !reflect.DeepEqual(original, snapshot) {
		t.Fatalf("toggle mutated input: %v", original)
	}
}

func TestToggleUnknownColumn(t *testing.T) {
	spec := Spec{{ColumnReportName, Asc}}
	if got := spec.Toggle(Column("timestamp")); !reflect.DeepEqual(got, spec) {
		t.Fatalf("unknown column should be ignored, got %v", got)
	}
}

func TestStates(t *testing.T) {
	states := Spec{{ColumnReportName, Desc}}.States()
	if states[ColumnReportName] != Descending || states[ColumnCreditsUsed] != Unsorted {
		t.Fatalf("unexpected states %v", states)
	}
}
