package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/usage_dashboard/internal/models"
)

const defaultReportTTL = time.Hour

// ReportCache stores report metadata in Redis keyed by report id.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Get(ctx context.Context, id int64) (models.Report, bool) {
	if c == nil || c.client == nil {
		return models.Report{}, false
	}
	data, err := c.client.Get(ctx, reportKey(id)).Bytes()
	if err != nil {
		return models.Report{}, false
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return models.Report{}, false
	}
	return report, true
}

func (c *ReportCache) Set(ctx context.Context, report models.Report) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	c.client.Set(ctx, reportKey(report.ID), data, c.ttl)
}

func reportKey(id int64) string {
	return "report:" + strconv.FormatInt(id, 10)
}
