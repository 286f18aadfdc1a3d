// Package reports resolves report metadata through cache tiers in front of the upstream API.
package reports

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ncecere/usage_dashboard/internal/models"
)

// Lookup tiers and results reported to the LookupRecorder.
const (
	TierCache    = "cache"
	TierStore    = "store"
	TierUpstream = "upstream"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

type Fetcher interface {
	Report(ctx context.Context, id int64) (models.Report, error)
}

// Cache is a fast, best-effort tier; misses and failures look the same.
type Cache interface {
	Get(ctx context.Context, id int64) (models.Report, bool)
	Set(ctx context.Context, report models.Report)
}

// Store is a durable tier that can report failures.
type Store interface {
	Get(ctx context.Context, id int64) (models.Report, bool, error)
	Put(ctx context.Context, report models.Report) error
}

type LookupRecorder interface {
	RecordReportLookup(tier, result string)
}

type Options struct {
	Cache       Cache
	Store       Store
	Concurrency int

	// FetchTimeout bounds a shared upstream fetch, which outlives any single caller.
	FetchTimeout time.Duration
	Recorder     LookupRecorder
	Logger       *slog.Logger
}

// Resolver looks reports up cache first, then store, then upstream, back-filling
// the faster tiers on the way out. Concurrent lookups of one id share a fetch.
type Resolver struct {
	fetcher     Fetcher
	cache       Cache
	store       Store
	concurrency int
	timeout     time.Duration
	recorder    LookupRecorder
	logger      *slog.Logger
	group       singleflight.Group
}

func NewResolver(fetcher Fetcher, opts Options) *Resolver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		fetcher:     fetcher,
		cache:       opts.Cache,
		store:       opts.Store,
		concurrency: opts.Concurrency,
		timeout:     opts.FetchTimeout,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
	}
}

// Resolve returns the reports it could find for ids, keyed by id. Failed lookups
// are logged and left out so callers fall back to text pricing. The only error
// is the context's.
func (r *Resolver) Resolve(ctx context.Context, ids []int64) (map[int64]models.Report, error) {
	out := make(map[int64]models.Report, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, len(ids))
		g    errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			report, err := r.Lookup(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("report lookup failed", "report_id", id, "error", err)
				}
				return nil
			}
			mu.Lock()
			out[id] = report
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup resolves a single report through every tier.
func (r *Resolver) Lookup(ctx context.Context, id int64) (models.Report, error) {
	if r.cache != nil {
		if report, ok := r.cache.Get(ctx, id); ok {
			r.record(TierCache, ResultHit)
			return report, nil
		}
		r.record(TierCache, ResultMiss)
	}

	if r.store != nil {
		report, ok, err := r.store.Get(ctx, id)
		switch {
		case err != nil:
			r.record(TierStore, ResultError)
			r.logger.Warn("report store lookup failed", "report_id", id, "error", err)
		case ok:
			r.record(TierStore, ResultHit)
			if r.cache != nil {
				r.cache.Set(ctx, report)
			}
			return report, nil
		default:
			r.record(TierStore, ResultMiss)
		}
	}

	if r.fetcher == nil {
		return models.Report{}, errors.New("no report fetcher configured")
	}
	// The fetch is shared with other callers, so it must not inherit this
	// caller's cancellation; each caller stops waiting on its own ctx instead.
	ch := r.group.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.fetch(fetchCtx, id)
	})
	select {
	case <-ctx.Done():
		return models.Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.Report{}, res.Err
		}
		return res.Val.(models.Report), nil
	}
}

func (r *Resolver) fetch(ctx context.Context, id int64) (models.Report, error) {
	report, err := r.fetcher.Report(ctx, id)
	if err != nil {
		r.record(TierUpstream, ResultError)
		return models.Report{}, err
	}
	r.record(TierUpstream, ResultHit)
	if r.store != nil {
		if err := r.store.Put(ctx, report); err != nil {
			r.logger.Warn("report store write failed", "report_id", id, "error", err)
		}
	}
	if r.cache != nil {
		r.cache.Set(ctx, report)
	}
	return report, nil
}

func (r *Resolver) record(tier, result string) {
	if r.recorder != nil {
		r.recorder.RecordReportLookup(tier, result)
	}
}
