package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
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

func TestQueryTracer_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	tracer := NewQueryTracer(0, nil)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "select * from tools where id = $1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.SELECT", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "SELECT", attrs["db.operation"])
}

func TestQueryTracer_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	tracer := NewQueryTracer(0, nil)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "UPDATE reviews SET status = $1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("deadlock detected")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "deadlock detected", spans[0].Status.Description)
}

func TestQueryTracer_LogsSlowQueries(t *testing.T) {
	setupTestTracer(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tracer := NewQueryTracer(time.Nanosecond, logger)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT pg_sleep(1)"})
	time.Sleep(time.Millisecond)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "pg_sleep")
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "INSERT", operationName("  insert into tools values ($1)"))
	assert.Equal(t, "WITH", operationName("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "UNKNOWN", operationName(""))
}
