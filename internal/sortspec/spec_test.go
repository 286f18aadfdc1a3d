package sortspec

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Spec
	}{
		{name: "empty", raw: "", want: Spec{}},
		{name: "single", raw: "credits_used:desc", want: Spec{{ColumnCreditsUsed, Desc}}},
		{
			name: "precedence kept",
			raw:  "credits_used:desc,report_name:asc",
			want: Spec{{ColumnCreditsUsed, Desc}, {ColumnReportName, Asc}},
		},
		{name: "case and spaces", raw: " Report_Name : DESC ", want: Spec{{ColumnReportName, Desc}}},
		{name: "unknown column dropped", raw: "message_id:asc,credits_used:asc", want: Spec{{ColumnCreditsUsed, Asc}}},
		{name: "unknown direction dropped", raw: "credits_used:up,report_name:desc", want: Spec{{ColumnReportName, Desc}}},
		{name: "missing direction dropped", raw: "credits_used,report_name:asc", want: Spec{{ColumnReportName, Asc}}},
		{name: "duplicate keeps first", raw: "credits_used:asc,credits_used:desc", want: Spec{{ColumnCreditsUsed, Asc}}},
		{name: "garbage", raw: ",,:,::asc,%%", want: Spec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	specs := []Spec{
		{},
		{{ColumnReportName, Asc}},
		{{ColumnCreditsUsed, Desc}, {ColumnReportName, Asc}},
		{{ColumnReportName, Desc}, {ColumnCreditsUsed, Asc}},
	}
	for _, spec := range specs {
		encoded := spec.String()
		decoded := Parse(encoded)
		if !reflect.DeepEqual(decoded, spec) {
			t.Fatalf("round trip of %v via %q gave %v", spec, encoded, decoded)
		}
	}
	if got := (Spec{{ColumnCreditsUsed, Desc}, {ColumnReportName, Asc}}).String(); got != "credits_used:desc,report_name:asc" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestParseColumn(t *testing.T) {
	if col, err := ParseColumn("CREDITS_USED"); err != nil || col != ColumnCreditsUsed {
		t.Fatalf("expected credits_used, got %q %v", col, err)
	}
	if _, err := ParseColumn("timestamp"); err != ErrInvalidColumn {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}
