package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/ghshop/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServiceName:     "ghshop-test",
		ServiceVersion:  "test",
		Environment:     config.EnvTesting,
		OtelSampleRatio: 1,
	}
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestSetup_ExportsDomainMetrics(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	counter, err := otel.Meter("test").Int64Counter("shop.orders.placed")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(context.Background(), 2)

	body := scrape(t, handler)
	if !strings.Contains(body, "shop_orders_placed_total") {
		t.Errorf("expected the placed counter in the scrape, got:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected Go runtime metrics in the scrape")
	}
}

func TestSetup_Twice(t *testing.T) {
	for range 2 {
		shutdown, _, err := Setup(context.Background(), baseConfig())
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}
}

func TestSetup_InstallsPropagator(t *testing.T) {
	shutdown, _, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "place-order")
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if carrier.Get("traceparent") == "" {
		t.Errorf("expected a traceparent header, got %v", carrier)
	}
}

func TestSampleRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1} {
		if got := sampleRatio(&config.Config{OtelSampleRatio: in}); got != want {
			t.Errorf("sampleRatio(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCaptureError_WithoutSentry(t *testing.T) {
	CaptureError(context.Background(), nil, nil)
	CaptureError(context.Background(), errors.New("order.placed handler failed"), map[string]string{"topic": "order.placed"})
}
