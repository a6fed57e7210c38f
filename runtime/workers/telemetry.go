package workers

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// SessionCounter is the dispatcher-side view the telemetry worker reads.
type SessionCounter interface {
	SessionCount() int
}

// TelemetryWorker periodically logs gateway load. Reading a counter and
// the goroutine count is cheap enough to run on a tight interval.
type TelemetryWorker struct {
	log            *slog.Logger
	sessions       SessionCounter
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, sessions SessionCounter,
	metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, sessions: sessions, metricInterval: metricInterval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.log.Info("Gateway load",
				"open_sessions", w.sessions.SessionCount(),
				"goroutines", runtime.NumGoroutine())
		}
	}
}
