package usage

import (
	"time"

	decimal "github.com/shopspring/decimal"

	"github.com/ncecere/usage_dashboard/internal/models"
	"github.com/ncecere/usage_dashboard/internal/timeutil"
)

type creditSum struct {
	total decimal.Decimal
}

func newSum() *creditSum {
	return &creditSum{total: decimal.Zero}
}

func (s *creditSum) add(value float64) {
	s.total = s.total.Add(decimal.NewFromFloat(value))
}

func (s *creditSum) value() float64 {
	return s.total.Round(2).InexactFloat64()
}

// BucketByDay totals credits per UTC calendar day and zero-fills every day
// between the earliest and latest record. Records whose timestamp cannot be
// parsed are skipped.
func BucketByDay(records []models.UsageRecord) []models.ChartBucket {
	if len(records) == 0 {
		return []models.ChartBucket{}
	}

	daily := make(map[string]*creditSum)
	var minDay, maxDay time.Time
	seen := false
	for _, record := range records {
		ts, err := timeutil.ParseTimestamp(record.Timestamp)
		if err != nil {
			continue
		}
		day := timeutil.TruncateToDay(ts, time.UTC)
		key := timeutil.DayKey(day, time.UTC)
		sum, ok := daily[key]
		if !ok {
			sum = newSum()
			daily[key] = sum
		}
		sum.add(record.CreditsUsed)

		if !seen || day.Before(minDay) {
			minDay = day
		}
		if !seen || day.After(maxDay) {
			maxDay = day
		}
		seen = true
	}
	if !seen {
		return []models.ChartBucket{}
	}

	days := timeutil.Days(minDay, maxDay, time.UTC)
	buckets := make([]models.ChartBucket, 0, len(days))
	for _, day := range days {
		key := timeutil.DayKey(day, time.UTC)
		bucket := models.ChartBucket{Date: key}
		if sum, ok := daily[key]; ok {
			bucket.Credits = sum.value()
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
