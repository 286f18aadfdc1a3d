// Package usage serves the current-period usage table, chart series and dashboard.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ncecere/usage_dashboard/internal/credits"
	"github.com/ncecere/usage_dashboard/internal/models"
	"github.com/ncecere/usage_dashboard/internal/sortspec"
	usagecalc "github.com/ncecere/usage_dashboard/internal/usage"
)

// ErrUpstreamUnavailable wraps failures to load the message feed.
var ErrUpstreamUnavailable = errors.New("usage data unavailable")

// Pricing sources reported to the CreditRecorder.
const (
	SourceReport = "report"
	SourceText   = "text"
)

type MessageSource interface {
	CurrentPeriodMessages(ctx context.Context) ([]models.Message, error)
}

type ReportResolver interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]models.Report, error)
}

type CreditRecorder interface {
	RecordCredits(source string, credits float64)
}

// Service combines the message feed, report metadata and pricing.
type Service struct {
	messages MessageSource
	reports  ReportResolver
	calc     *credits.Calculator
	recorder CreditRecorder
	logger   *slog.Logger
}

func NewService(messages MessageSource, reports ReportResolver, calc *credits.Calculator, recorder CreditRecorder, logger *slog.Logger) *Service {
	if calc == nil {
		calc = credits.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		messages: messages,
		reports:  reports,
		calc:     calc,
		recorder: recorder,
		logger:   logger,
	}
}

// Dashboard is everything the usage page renders from one fetch.
type Dashboard struct {
	Usage        []models.UsageRecord `json:"usage"`
	Daily        []models.ChartBucket `json:"daily"`
	TotalCredits float64              `json:"total_credits"`
	SortView
}

// SortView is the canonical URL sort value plus each column's header state.
type SortView struct {
	Sort    string                     `json:"sort"`
	Columns map[sortspec.Column]string `json:"columns"`
}

// NewSortView renders spec for clients.
func NewSortView(spec sortspec.Spec) SortView {
	states := spec.States()
	columns := make(map[sortspec.Column]string, len(states))
	for col, state := range states {
		columns[col] = state.String()
	}
	return SortView{Sort: spec.String(), Columns: columns}
}

// Usage returns the priced usage rows ordered by spec.
func (s *Service) Usage(ctx context.Context, spec sortspec.Spec) ([]models.UsageRecord, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return sortspec.Apply(records, spec), nil
}

// Daily returns the zero-filled per-day credit series.
func (s *Service) Daily(ctx context.Context) ([]models.ChartBucket, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return usagecalc.BucketByDay(records), nil
}

func (s *Service) Dashboard(ctx context.Context, spec sortspec.Spec) (Dashboard, error) {
	records, err := s.records(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Usage:        sortspec.Apply(records, spec),
		Daily:        usagecalc.BucketByDay(records),
		TotalCredits: usagecalc.TotalCredits(records),
		SortView:     NewSortView(spec),
	}, nil
}

// records loads and prices the current period in feed order.
func (s *Service) records(ctx context.Context) ([]models.UsageRecord, error) {
	if s.messages == nil {
		return nil, fmt.Errorf("%w: no message source configured", ErrUpstreamUnavailable)
	}
	messages, err := s.messages.CurrentPeriodMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	reports := map[int64]models.Report{}
	if ids := usagecalc.ReportIDs(messages); len(ids) > 0 && s.reports != nil {
		resolved, err := s.reports.Resolve(ctx, ids)
		if err != nil {
			return nil, err
		}
		if missing := len(ids) - len(resolved); missing > 0 {
			s.logger.Info("pricing messages without report metadata", "missing_reports", missing)
		}
		reports = resolved
	}

	records := usagecalc.BuildUsage(messages, reports, s.calc)
	s.recordCredits(records)
	return records, nil
}

func (s *Service) recordCredits(records []models.UsageRecord) {
	if s.recorder == nil {
		return
	}
	var fromReports, fromText []models.UsageRecord
	for _, record := range records {
		if record.ReportName != nil {
			fromReports = append(fromReports, record)
		} else {
			fromText = append(fromText, record)
		}
	}
	s.recorder.RecordCredits(SourceReport, usagecalc.TotalCredits(fromReports))
	s.recorder.RecordCredits(SourceText, usagecalc.TotalCredits(fromText))
}
