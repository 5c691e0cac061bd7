package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used by Time and Logger.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Logger returns the default logger tagged with the request id when there is one.
func Logger(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return slog.Default().With("req_id", id)
	}
	return slog.Default()
}

// Time measures an operation. Use as: defer obs.Time(ctx, "op")(&err).
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = "error"
		}
		operationDuration.WithLabelValues(name, outcome).Observe(dur.Seconds())

		if outcome == "error" {
			Logger(ctx).Warn("operation failed", "op", name, "dur_ms", dur.Milliseconds(), "err", *errp)
			return
		}
		Logger(ctx).Debug("operation done", "op", name, "dur_ms", dur.Milliseconds())
	}
}
