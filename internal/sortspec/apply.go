package sortspec

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ncecere/usage_dashboard/internal/models"
)

type indexed struct {
	record models.UsageRecord
	pos    int
}

// Apply returns a sorted copy of records. Ties on every criterion keep the
// original order, and an empty spec returns the records unchanged.
// Missing report names sort after present ones in either direction.
func Apply(records []models.UsageRecord, spec Spec) []models.UsageRecord {
	out := make([]models.UsageRecord, len(records))
	if len(spec) == 0 || len(records) < 2 {
		copy(out, records)
		return out
	}

	items := make([]indexed, len(records))
	for i, record := range records {
		items[i] = indexed{record: record, pos: i}
	}

	// Collators are not safe for concurrent use; one per call.
	collator := collate.New(language.English)
	slices.SortFunc(items, func(a, b indexed) int {
		for _, entry := range spec {
			if c := compareEntry(collator, entry, a.record, b.record); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.pos, b.pos)
	})

	for i, item := range items {
		out[i] = item.record
	}
	return out
}

func compareEntry(collator *collate.Collator, entry Entry, a, b models.UsageRecord) int {
	var c int
	switch entry.Column {
	case ColumnReportName:
		an, bn := a.ReportNameOrEmpty(), b.ReportNameOrEmpty()
		switch {
		case an == "" && bn == "":
			return 0
		case an == "":
			return 1
		case bn == "":
			return -1
		}
		c = collator.CompareString(an, bn)
	case ColumnCreditsUsed:
		c = cmp.Compare(a.CreditsUsed, b.CreditsUsed)
	default:
		return 0
	}
	if entry.Direction == Desc {
		return -c
	}
	return c
}
