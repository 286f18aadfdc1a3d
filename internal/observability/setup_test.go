package observability

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ncecere/usage_dashboard/internal/config"
)

func TestSetupDisabled(t *testing.T) {
	provider, err := Setup(context.Background(), config.ObservabilityConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != nil {
		t.Fatalf("expected nil provider when everything is off")
	}
	// nil provider must be usable
	provider.RecordHTTPRequest(context.Background(), "GET", "/usage", 200, time.Millisecond)
	provider.RecordReportLookup("cache", "hit")
	provider.RecordCredits("text", 1)
	if provider.PrometheusHandler() != nil {
		t.Fatalf("nil provider should expose no handler")
	}
}

func TestMetricsExposed(t *testing.T) {
	provider, err := Setup(context.Background(), config.ObservabilityConfig{EnableMetrics: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer provider.Shutdown(context.Background())

	provider.RecordHTTPRequest(context.Background(), "GET", "/usage", 200, 20*time.Millisecond)
	provider.RecordUpstreamLatency("messages", 200, 30*time.Millisecond)
	provider.RecordReportLookup("cache", "miss")
	provider.RecordCredits("report", 79)
	provider.RecordCredits("text", 0)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		"usage_dashboard_http_requests_total",
		"usage_dashboard_upstream_request_duration_seconds",
		`usage_dashboard_report_lookups_total{result="miss",tier="cache"} 1`,
		`usage_dashboard_credits_computed_total{source="report"} 79`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
	if strings.Contains(text, `source="text"`) {
		t.Fatalf("zero credits should not be recorded")
	}
}

func TestOTLPEndpoint(t *testing.T) {
	endpoint, opts := otlpEndpoint("https://collector:4317")
	if endpoint != "collector:4317" || len(opts) != 0 {
		t.Fatalf("https endpoint should be secure, got %q %d", endpoint, len(opts))
	}
	endpoint, opts = otlpEndpoint("http://collector:4317")
	if endpoint != "collector:4317" || len(opts) != 1 {
		t.Fatalf("http endpoint should be insecure, got %q %d", endpoint, len(opts))
	}
	endpoint, _ = otlpEndpoint("")
	if endpoint != "localhost:4317" {
		t.Fatalf("unexpected default endpoint %q", endpoint)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "report_id", 5392)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"report_id":5392`) || !strings.Contains(out, `"service":"usage-dashboard"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
	if _, err := NewLogger(config.LoggingConfig{Level: "loud"}, &buf); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
