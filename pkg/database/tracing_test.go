package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func observations(t *testing.T, operation, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, queryDuration.WithLabelValues(operation, outcome).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestTraceQuery_Span(t *testing.T) {
	exporter := setupTestTracer(t)
	const stmt = "SELECT id, title FROM products WHERE id = $1 AND is_enabled"

	ctx, end := TraceQuery(context.Background(), "GetProduct", stmt)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.GetProduct", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetProduct", attrs["db.operation"])
	assert.Equal(t, stmt, attrs["db.statement"])
}

func TestTraceQuery_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		err        error
		wantStatus codes.Code
		outcome    string
	}{
		{"ok", "ListProducts", nil, codes.Unset, "ok"},
		{"miss", "GetOrder", pgx.ErrNoRows, codes.Unset, "no_rows"},
		{"wrapped miss", "GetOrderWrapped", errors.Join(errors.New("get order"), pgx.ErrNoRows), codes.Unset, "no_rows"},
		{"failure", "CreateOrder", errors.New("insert order: deadlock detected"), codes.Error, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := setupTestTracer(t)
			before := observations(t, tt.operation, tt.outcome)
			_, end := TraceQuery(context.Background(), tt.operation, "SELECT 1")
			end(tt.err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			assert.Equal(t, before+1, observations(t, tt.operation, tt.outcome))
			if tt.outcome == "no_rows" {
				assert.Equal(t, "true", spanAttrs(spans[0])["db.no_rows"])
			}
		})
	}
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))

	_, end := TraceQuery(context.Background(), "CreateOrder", "INSERT INTO orders (id) VALUES ($1)")
	end(errors.New("unique constraint violation"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slow query detected", line["msg"])
	assert.Equal(t, "CreateOrder", line["operation"])
	assert.Equal(t, "INSERT INTO orders (id) VALUES ($1)", line["statement"])
	assert.Equal(t, "unique constraint violation", line["error"])
}

func TestSlowQueryLogging_UnderThreshold(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var buf bytes.Buffer
	SetSlowQueryLogging(time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

	_, end := TraceQuery(context.Background(), "GetProductsByIDs", "SELECT 1")
	end(nil)

	assert.Zero(t, buf.Len())
}

func TestSlowQueryLogging_DisabledBySettings(t *testing.T) {
	setupTestTracer(t)

	SetSlowQueryLogging(time.Nanosecond, nil)
	assert.Nil(t, slowQuery.Load())

	SetSlowQueryLogging(0, slog.Default())
	assert.Nil(t, slowQuery.Load())

	_, end := TraceQuery(context.Background(), "ListProducts", "SELECT 1")
	end(nil)
}

func TestSetSlowQueryLogging_Concurrent(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Millisecond, logger)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, end := TraceQuery(context.Background(), "ListProducts", "SELECT 1")
			end(nil)
		}
	}()
	wg.Wait()
}
