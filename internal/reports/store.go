package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	decimal "github.com/shopspring/decimal"

	"github.com/ncecere/usage_dashboard/internal/db"
	"github.com/ncecere/usage_dashboard/internal/models"
)

type reportQueries interface {
	GetCachedReport(ctx context.Context, reportID int64) (db.ReportsCache, error)
	UpsertCachedReport(ctx context.Context, arg db.UpsertCachedReportParams) (db.ReportsCache, error)
	DeleteExpiredReports(ctx context.Context) (int64, error)
}

// PostgresStore keeps fetched report metadata in the reports_cache table.
type PostgresStore struct {
	queries reportQueries
	ttl     time.Duration
	now     func() time.Time
}

func NewPostgresStore(queries reportQueries, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PostgresStore{queries: queries, ttl: ttl, now: time.Now}
}

// Get returns the unexpired cached report for id. A miss is not an error.
func (s *PostgresStore) Get(ctx context.Context, id int64) (models.Report, bool, error) {
	row, err := s.queries.GetCachedReport(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Report{}, false, nil
		}
		return models.Report{}, false, fmt.Errorf("get cached report %d: %w", id, err)
	}
	cost, err := numericToDecimal(row.CreditCost)
	if err != nil {
		return models.Report{}, false, fmt.Errorf("cached report %d: %w", id, err)
	}
	return models.Report{
		ID:         row.ReportID,
		Name:       row.Name,
		CreditCost: cost.InexactFloat64(),
	}, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, report models.Report) error {
	_, err := s.queries.UpsertCachedReport(ctx, db.UpsertCachedReportParams{
		ReportID:   report.ID,
		Name:       report.Name,
		CreditCost: decimalToNumeric(decimal.NewFromFloat(report.CreditCost).Round(2)),
		ExpiresAt:  pgtype.Timestamptz{Time: s.now().Add(s.ttl).UTC(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("upsert cached report %d: %w", report.ID, err)
	}
	return nil
}

// DeleteExpired removes stale rows and returns how many were deleted.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredReports(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired reports: %w", err)
	}
	return n, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, fmt.Errorf("credit cost is null")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero, fmt.Errorf("credit cost is not a finite number")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
