package usage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/usage_dashboard/internal/credits"
	"github.com/ncecere/usage_dashboard/internal/models"
	"github.com/ncecere/usage_dashboard/internal/sortspec"
)

type stubMessages struct {
	messagesFn func(ctx context.Context) ([]models.Message, error)
}

func (s *stubMessages) CurrentPeriodMessages(ctx context.Context) ([]models.Message, error) {
	return s.messagesFn(ctx)
}

type stubResolver struct {
	resolveFn func(ctx context.Context, ids []int64) (map[int64]models.Report, error)
}

func (s *stubResolver) Resolve(ctx context.Context, ids []int64) (map[int64]models.Report, error) {
	return s.resolveFn(ctx, ids)
}

type creditTally map[string]float64

func (c creditTally) RecordCredits(source string, credits float64) {
	c[source] += credits
}

func int64Ptr(v int64) *int64 { return &v }

func sampleMessages() []models.Message {
	return []models.Message{
		{ID: 1000, Timestamp: "2024-04-29T02:08:29.375Z", ReportID: int64Ptr(5392), Text: "Generate a Tenant Obligations Report for the new lease terms."},
		{ID: 1001, Timestamp: "2024-04-29T03:25:03.613Z", Text: "Are there any restrictions on alterations or improvements?"},
		{ID: 1002, Timestamp: "2024-05-01T11:00:00Z", ReportID: int64Ptr(404), Text: "Hi"},
	}
}

func newTestService(t *testing.T, tally creditTally) *Service {
	t.Helper()
	messages := &stubMessages{messagesFn: func(context.Context) ([]models.Message, error) {
		return sampleMessages(), nil
	}}
	resolver := &stubResolver{resolveFn: func(_ context.Context, ids []int64) (map[int64]models.Report, error) {
		require.Equal(t, []int64{5392, 404}, ids)
		return map[int64]models.Report{
			5392: {ID: 5392, Name: "Tenant Obligations Report", CreditCost: 79},
		}, nil
	}}
	return NewService(messages, resolver, credits.Default(), tally, nil)
}

func TestServiceUsageFeedOrder(t *testing.T) {
	svc := newTestService(t, nil)

	records, err := svc.Usage(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.EqualValues(t, 1000, records[0].MessageID)
	require.NotNil(t, records[0].ReportName)
	require.Equal(t, "Tenant Obligations Report", *records[0].ReportName)
	require.Equal(t, 79.0, records[0].CreditsUsed)

	require.Nil(t, records[1].ReportName)
	require.Equal(t, 5.80, records[1].CreditsUsed)

	// unresolved report falls back to the text estimate
	require.Nil(t, records[2].ReportName)
	require.Equal(t, 1.00, records[2].CreditsUsed)
}

func TestServiceUsageSorted(t *testing.T) {
	svc := newTestService(t, nil)

	records, err := svc.Usage(context.Background(), sortspec.Parse("credits_used:asc"))
	require.NoError(t, err)
	require.EqualValues(t, 1002, records[0].MessageID)
	require.EqualValues(t, 1001, records[1].MessageID)
	require.EqualValues(t, 1000, records[2].MessageID)

	records, err = svc.Usage(context.Background(), sortspec.Parse("report_name:desc"))
	require.NoError(t, err)
	require.EqualValues(t, []int64{1000, 1001, 1002}, []int64{records[0].MessageID, records[1].MessageID, records[2].MessageID})
}

func TestServiceDaily(t *testing.T) {
	svc := newTestService(t, nil)

	daily, err := svc.Daily(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.ChartBucket{
		{Date: "2024-04-29", Credits: 84.80},
		{Date: "2024-04-30", Credits: 0},
		{Date: "2024-05-01", Credits: 1.00},
	}, daily)
}

func TestServiceDashboard(t *testing.T) {
	tally := creditTally{}
	svc := newTestService(t, tally)

	dash, err := svc.Dashboard(context.Background(), sortspec.Parse("credits_used:desc,bogus:asc"))
	require.NoError(t, err)
	require.Len(t, dash.Usage, 3)
	require.EqualValues(t, 1000, dash.Usage[0].MessageID)
	require.Len(t, dash.Daily, 3)
	require.Equal(t, 85.80, dash.TotalCredits)
	require.Equal(t, "credits_used:desc", dash.Sort)
	require.Equal(t, "desc", dash.Columns[sortspec.ColumnCreditsUsed])
	require.Equal(t, "unsorted", dash.Columns[sortspec.ColumnReportName])

	require.Equal(t, 79.0, tally[SourceReport])
	require.InDelta(t, 6.80, tally[SourceText], 1e-9)

	raw, err := json.Marshal(dash)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded, "usage")
	require.Contains(t, decoded, "daily")
	require.Contains(t, decoded, "total_credits")
	require.Equal(t, "credits_used:desc", decoded["sort"])
}

func TestServiceUpstreamFailure(t *testing.T) {
	boom := errors.New("connection reset")
	messages := &stubMessages{messagesFn: func(context.Context) ([]models.Message, error) {
		return nil, boom
	}}
	svc := NewService(messages, nil, nil, nil, nil)

	_, err := svc.Usage(context.Background(), nil)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.ErrorIs(t, err, boom)

	_, err = svc.Daily(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestServiceResolverCanceled(t *testing.T) {
	messages := &stubMessages{messagesFn: func(context.Context) ([]models.Message, error) {
		return sampleMessages(), nil
	}}
	resolver := &stubResolver{resolveFn: func(ctx context.Context, _ []int64) (map[int64]models.Report, error) {
		return nil, context.Canceled
	}}
	svc := NewService(messages, resolver, nil, nil, nil)

	_, err := svc.Usage(context.Background(), nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestServiceEmptyFeed(t *testing.T) {
	messages := &stubMessages{messagesFn: func(context.Context) ([]models.Message, error) {
		return []models.Message{}, nil
	}}
	resolver := &stubResolver{resolveFn: func(context.Context, []int64) (map[int64]models.Report, error) {
		t.Fatalf("resolver should not be called without report ids")
		return nil, nil
	}}
	svc := NewService(messages, resolver, nil, nil, nil)

	dash, err := svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, dash.Usage)
	require.Empty(t, dash.Daily)
	require.Zero(t, dash.TotalCredits)
	require.Equal(t, "", dash.Sort)
}
