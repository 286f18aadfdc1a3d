// Package usage turns upstream messages into usage records and chart series.
package usage

import (
	"github.com/ncecere/usage_dashboard/internal/credits"
	"github.com/ncecere/usage_dashboard/internal/models"
)

// BuildUsage prices every message in arrival order. A report_id missing from
// reportsByID falls back to the text estimate and leaves ReportName unset.
func BuildUsage(messages []models.Message, reportsByID map[int64]models.Report, calc *credits.Calculator) []models.UsageRecord {
	if calc == nil {
		calc = credits.Default()
	}
	records := make([]models.UsageRecord, 0, len(messages))
	for _, msg := range messages {
		record := models.UsageRecord{
			MessageID: msg.ID,
			Timestamp: msg.Timestamp,
		}
		var report *models.Report
		if msg.HasReport() {
			if found, ok := reportsByID[*msg.ReportID]; ok {
				report = &found
				name := found.Name
				record.ReportName = &name
			}
		}
		record.CreditsUsed = calc.Calculate(msg, report)
		records = append(records, record)
	}
	return records
}

// ReportIDs returns the distinct report ids referenced by messages, in first-seen order.
func ReportIDs(messages []models.Message) []int64 {
	ids := make([]int64, 0, len(messages))
	seen := make(map[int64]struct{}, len(messages))
	for _, msg := range messages {
		if !msg.HasReport() {
			continue
		}
		id := *msg.ReportID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// TotalCredits sums credits_used across records, rounded to cents.
func TotalCredits(records []models.UsageRecord) float64 {
	total := newSum()
	for _, record := range records {
		total.add(record.CreditsUsed)
	}
	return total.value()
}
