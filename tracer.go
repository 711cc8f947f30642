package agegraph

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type traceKey struct{}

type traceData struct {
	sql   string
	start time.Time
}

// queryTracer logs every statement sent over the pool at debug level.
type queryTracer struct {
	log *zap.Logger
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, &traceData{sql: data.SQL, start: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(traceKey{}).(*traceData)
	if !ok {
		return
	}
	duration := time.Since(td.start)

	if data.Err != nil {
		t.log.Debug("query error",
			zap.String("query", td.sql),
			zap.Duration("duration", duration),
			zap.Error(data.Err))
		return
	}

	t.log.Debug("query",
		zap.String("query", td.sql),
		zap.Duration("duration", duration),
		zap.String("tag", data.CommandTag.String()))
}
