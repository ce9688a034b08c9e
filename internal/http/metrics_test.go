package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestHTTPMetrics_MetricsMiddleware(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	m := &HTTPMetrics{
		meter:  mp.Meter(httpInstrumentationName),
		logger: zap.NewNop(),
	}
	m.init()

	// Create Echo instance with middleware
	e := echo.New()
	e.Use(m.MetricsMiddleware())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/projects/:codename/memories", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{})
	})

	// Make test requests
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/api/projects/alpha/memories", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/api/projects/beta/memories", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// Collect metrics
	ctx := context.Background()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	foundRequests := false
	foundDuration := false
	foundResponseSize := false
	endpoints := map[string]int64{}

	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch met.Name {
			case "memoryd.http.requests_total":
				foundRequests = true
				if sum, ok := met.Data.(metricdata.Sum[int64]); ok {
					total := int64(0)
					for _, dp := range sum.DataPoints {
						total += dp.Value
						if ep, ok := dp.Attributes.Value(attribute.Key("endpoint")); ok {
							endpoints[ep.AsString()] += dp.Value
						}
					}
					if total != 3 {
						t.Errorf("expected 3 requests, got %d", total)
					}
				}
			case "memoryd.http.request_duration_seconds":
				foundDuration = true
				if hist, ok := met.Data.(metricdata.Histogram[float64]); ok {
					total := uint64(0)
					for _, dp := range hist.DataPoints {
						total += dp.Count
					}
					if total != 3 {
						t.Errorf("expected 3 duration recordings, got %d", total)
					}
				}
			case "memoryd.http.response_size_bytes":
				foundResponseSize = true
			}
		}
	}

	if !foundRequests {
		t.Error("requests counter not found")
	}
	if !foundDuration {
		t.Error("duration histogram not found")
	}
	if !foundResponseSize {
		t.Error("response size histogram not found")
	}

	// Both project requests share the route-template label.
	if got := endpoints["/api/projects/:codename/memories"]; got != 2 {
		t.Errorf("expected 2 requests under the memories route template, got %d", got)
	}
	if got := endpoints["/health"]; got != 1 {
		t.Errorf("expected 1 request under /health, got %d", got)
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "/"},
		{"/health", "/health"},
		{"/api/projects/:codename/memories/:id", "/api/projects/:codename/memories/:id"},
	}

	for _, tt := range tests {
		result := endpointLabel(tt.input)
		if result != tt.expected {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
