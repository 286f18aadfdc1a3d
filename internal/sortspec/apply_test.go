package sortspec

import (
	"testing"

	"github.com/ncecere/usage_dashboard/internal/models"
)

func named(id int64, name string, credits float64) models.UsageRecord {
	rec := models.UsageRecord{MessageID: id, CreditsUsed: credits}
	if name != "" {
		rec.ReportName = &name
	}
	return rec
}

func ids(records []models.UsageRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.MessageID
	}
	return out
}

func assertOrder(t *testing.T, got []models.UsageRecord, want ...int64) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %d records, got %d (%v)", len(want), len(gotIDs), gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", gotIDs, want)
		}
	}
}

func fixture() []models.UsageRecord {
	return []models.UsageRecord{
		named(1, "", 2.5),
		named(2, "Tenant Obligations Report", 79),
		named(3, "", 1),
		named(4, "lease summary", 38),
		named(5, "Break Clause Report", 79),
		named(6, "", 2.5),
	}
}

func TestApplyEmpty(t *testing.T) {
	if got := Apply(nil, Spec{{ColumnCreditsUsed, Asc}}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	records := fixture()
	assertOrder(t, Apply(records, nil), 1, 2, 3, 4, 5, 6)
	assertOrder(t, Apply(records, Spec{}), 1, 2, 3, 4, 5, 6)
}

func TestApplyCreditsStable(t *testing.T) {
	records := fixture()
	assertOrder(t, Apply(records, Spec{{ColumnCreditsUsed, Asc}}), 3, 1, 6, 4, 2, 5)
	assertOrder(t, Apply(records, Spec{{ColumnCreditsUsed, Desc}}), 2, 5, 4, 1, 6, 3)
}

func TestApplyReportNameEmptySinks(t *testing.T) {
	records := fixture()
	assertOrder(t, Apply(records, Spec{{ColumnReportName, Asc}}), 5, 4, 2, 1, 3, 6)
	assertOrder(t, Apply(records, Spec{{ColumnReportName, Desc}}), 2, 4, 5, 1, 3, 6)
}

func TestApplyTiebreakers(t *testing.T) {
	records := fixture()
	spec := Spec{{ColumnCreditsUsed, Desc}, {ColumnReportName, Asc}}
	assertOrder(t, Apply(records, spec), 5, 2, 4, 1, 6, 3)

	spec = Spec{{ColumnReportName, Asc}, {ColumnCreditsUsed, Asc}}
	assertOrder(t, Apply(records, spec), 5, 4, 2, 3, 1, 6)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := fixture()
	_ = Apply(records, Spec{{ColumnCreditsUsed, Desc}})
	assertOrder(t, records, 1, 2, 3, 4, 5, 6)
}

func TestToggleThriceRestoresOriginalOrder(t *testing.T) {
	records := fixture()
	var spec Spec
	for i := 0; i < 3; i++ {
		spec = spec.Toggle(ColumnCreditsUsed)
	}
	assertOrder(t, Apply(records, spec), 1, 2, 3, 4, 5, 6)
}

func TestApplyLocaleAwareNames(t *testing.T) {
	records := []models.UsageRecord{
		named(1, "Zoning Report", 1),
		named(2, "Émission Report", 1),
		named(3, "apple Report", 1),
		named(4, "Easement Report", 1),
	}
	assertOrder(t, Apply(records, Spec{{ColumnReportName, Asc}}), 3, 4, 2, 1)
}
