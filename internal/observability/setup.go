package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	promreg "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/ncecere/usage_dashboard/internal/config"
)

const (
	serviceName      = "usage-dashboard"
	metricsNamespace = "usage_dashboard"
)

// Provider owns the tracer and meter providers plus the Prometheus collectors.
// A nil *Provider is valid and records nothing.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
	promHandler    http.Handler
	shutdownFuncs  []func(context.Context) error

	httpRequestCounter *promreg.CounterVec
	httpRequestLatency *promreg.HistogramVec
	upstreamLatency    *promreg.HistogramVec
	reportLookups      *promreg.CounterVec
	creditsCounter     *promreg.CounterVec
}

func Setup(ctx context.Context, cfg config.ObservabilityConfig) (*Provider, error) {
	if !cfg.EnableOTLP && !cfg.EnableMetrics {
		return nil, nil
	}

	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	if cfg.EnableOTLP {
		endpoint, opts := otlpEndpoint(cfg.OTLPEndpoint)
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))

		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
		if err != nil {
			return nil, err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		provider.tracerProvider = tp
		provider.shutdownFuncs = append(provider.shutdownFuncs, tp.Shutdown)
	}

	if cfg.EnableMetrics {
		registry := promreg.NewRegistry()
		promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, err
		}
		mp := metric.NewMeterProvider(
			metric.WithReader(promExporter),
			metric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		provider.meterProvider = mp
		provider.promHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
		provider.shutdownFuncs = append(provider.shutdownFuncs, mp.Shutdown)

		if err := provider.registerCollectors(registry); err != nil {
			return nil, err
		}
	}

	return provider, nil
}

func otlpEndpoint(raw string) (string, []otlptracegrpc.Option) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), nil
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint, []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
}

func (p *Provider) registerCollectors(registry *promreg.Registry) error {
	latencyBuckets := []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10}

	p.httpRequestCounter = promreg.NewCounterVec(
		promreg.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	p.httpRequestLatency = promreg.NewHistogramVec(
		promreg.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   latencyBuckets,
		},
		[]string{"method", "route", "status"},
	)
	p.upstreamLatency = promreg.NewHistogramVec(
		promreg.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of calls to the billing data API.",
			Buckets:   latencyBuckets,
		},
		[]string{"endpoint", "status"},
	)
	p.reportLookups = promreg.NewCounterVec(
		promreg.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "report_lookups_total",
			Help:      "Report metadata lookups by tier and result.",
		},
		[]string{"tier", "result"},
	)
	p.creditsCounter = promreg.NewCounterVec(
		promreg.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "credits_computed_total",
			Help:      "Credits computed for served usage rows, by pricing source.",
		},
		[]string{"source"},
	)

	for _, c := range []promreg.Collector{
		p.httpRequestCounter,
		p.httpRequestLatency,
		p.upstreamLatency,
		p.reportLookups,
		p.creditsCounter,
	} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil || p.promHandler == nil {
		return nil
	}
	return p.promHandler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) TracerProvider() *sdktrace.TracerProvider {
	if p == nil {
		return nil
	}
	return p.tracerProvider
}

func (p *Provider) RecordHTTPRequest(_ context.Context, method, route string, status int, duration time.Duration) {
	if p == nil {
		return
	}

	statusLabel := strconv.Itoa(status)

	if p.httpRequestCounter != nil {
		p.httpRequestCounter.WithLabelValues(method, route, statusLabel).Inc()
	}

	if p.httpRequestLatency != nil {
		p.httpRequestLatency.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
	}
}

// RecordUpstreamLatency tracks one upstream call. Status 0 means the request never got a response.
func (p *Provider) RecordUpstreamLatency(endpoint string, status int, duration time.Duration) {
	if p == nil || p.upstreamLatency == nil {
		return
	}
	p.upstreamLatency.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (p *Provider) RecordReportLookup(tier, result string) {
	if p == nil || p.reportLookups == nil {
		return
	}
	p.reportLookups.WithLabelValues(tier, result).Inc()
}

func (p *Provider) RecordCredits(source string, credits float64) {
	if p == nil || p.creditsCounter == nil || credits <= 0 {
		return
	}
	p.creditsCounter.WithLabelValues(source).Add(credits)
}
