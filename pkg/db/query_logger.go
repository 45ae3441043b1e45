package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
	"github.com/netbill/isp-billing/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// queryLogger forwards GORM diagnostics to the service logger. Only slow
// statements and unexpected driver errors are reported; callers surface the
// rest through their own error handling.
type queryLogger struct {
	logg          *logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &queryLogger{logg: logg, level: gormlogger.Warn, slowThreshold: slow}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, data ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Debug(ctx, fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, data ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, data ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, fmt.Sprintf(msg, data...), nil)
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		stmt, rows := fc()
		ctx = q.logg.WithFields(ctx, map[string]any{
			"sql":         stmt,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		})
		ctx = q.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		q.logg.Debug(ctx, "db.query_failed")
	case q.slowThreshold > 0 && elapsed > q.slowThreshold && q.level >= gormlogger.Warn:
		stmt, rows := fc()
		ctx = q.logg.WithFields(ctx, map[string]any{
			"sql":          stmt,
			"rows":         rows,
			"duration_ms":  elapsed.Milliseconds(),
			"threshold_ms": q.slowThreshold.Milliseconds(),
		})
		q.logg.Warn(ctx, "db.slow_query")
	}
}
