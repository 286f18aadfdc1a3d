// Package upstream talks to the read-only billing data API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	retry "github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/models"
)

const (
	messagesPath = "/messages/current-period"
	reportsPath  = "/reports/"

	endpointMessages = "messages"
	endpointReport   = "report"
	endpointPing     = "ping"

	maxBodyBytes = 16 << 20
)

// ErrReportNotFound is returned when the upstream has no report for the id.
var ErrReportNotFound = errors.New("report not found")

// StatusError reports a non-success upstream response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Code)
}

// LatencyRecorder receives per-call upstream timings.
type LatencyRecorder interface {
	RecordUpstreamLatency(endpoint string, status int, duration time.Duration)
}

// Client fetches messages and report metadata with bounded retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	backoff    time.Duration
	recorder   LatencyRecorder
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Client)

func WithRecorder(r LatencyRecorder) Option {
	return func(c *Client) { c.recorder = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(cfg config.UpstreamConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(retries),
		backoff:    backoff,
		logger:     slog.Default(),
		tracer:     otel.Tracer("usage-dashboard/upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentPeriodMessages returns every message of the current billing period.
func (c *Client) CurrentPeriodMessages(ctx context.Context) ([]models.Message, error) {
	var payload models.MessagesResponse
	if err := c.getJSON(ctx, endpointMessages, c.baseURL+messagesPath, &payload); err != nil {
		return nil, err
	}
	if payload.Messages == nil {
		return []models.Message{}, nil
	}
	return payload.Messages, nil
}

// Report returns the metadata for one generated report.
func (c *Client) Report(ctx context.Context, id int64) (models.Report, error) {
	var report models.Report
	url := c.baseURL + reportsPath + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, endpointReport, url, &report); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return models.Report{}, fmt.Errorf("report %d: %w", id, ErrReportNotFound)
		}
		return models.Report{}, fmt.Errorf("report %d: %w", id, err)
	}
	if report.ID == 0 {
		report.ID = id
	}
	return report, nil
}

// Ping issues one unretried request against the messages feed.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx, endpointPing, c.baseURL+messagesPath)
	return err
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, out any) error {
	ctx, span := c.tracer.Start(ctx, "upstream."+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	attempts := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		body, err := c.fetch(ctx, endpoint, url)
		if err != nil {
			if retryable(ctx, err) {
				c.logger.Debug("upstream request failed, retrying", "endpoint", endpoint, "attempt", attempts, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nil
	})
	span.SetAttributes(attribute.Int("upstream.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "OK")
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.record(endpoint, resp.StatusCode, time.Since(start))
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return body, nil
}

func (c *Client) record(endpoint string, status int, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordUpstreamLatency(endpoint, status, d)
	}
}

// retryable treats transport failures, throttling and server errors as transient.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}
