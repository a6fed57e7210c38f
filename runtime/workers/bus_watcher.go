package workers

import (
	"context"
	"log/slog"
	"time"
)

// BrokerHealth is the narrow view of a broker connection the watcher
// needs. *nats.Conn satisfies it; the in-process bus has no broker and
// runs without a watcher.
type BrokerHealth interface {
	IsConnected() bool
}

// SessionCloser lets the watcher fail the gateway closed once the broker
// is gone for good.
type SessionCloser interface {
	CloseAllSessions(reason string)
}

// BusWatcher monitors broker connectivity. The client library handles
// short outages itself through reconnection; the watcher only acts when
// the outage outlives the recovery window, at which point keeping
// sessions open would silently split rooms across processes.
type BusWatcher struct {
	log            *slog.Logger
	health         BrokerHealth
	closer         SessionCloser
	checkInterval  time.Duration
	recoveryWindow time.Duration
}

func NewBusWatcher(log *slog.Logger, health BrokerHealth, closer SessionCloser,
	checkInterval, recoveryWindow time.Duration) *BusWatcher {
	return &BusWatcher{
		log:            log,
		health:         health,
		closer:         closer,
		checkInterval:  checkInterval,
		recoveryWindow: recoveryWindow,
	}
}

func (w *BusWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	var downSince time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if w.health.IsConnected() {
				if !downSince.IsZero() {
					w.log.Info("Broker connection recovered",
						"outage", time.Since(downSince).String())
				}
				downSince = time.Time{}
				continue
			}

			if downSince.IsZero() {
				downSince = time.Now()
				w.log.Warn("Broker connection lost, waiting for reconnect")
				continue
			}

			if time.Since(downSince) >= w.recoveryWindow {
				w.log.Error("Broker gone past recovery window, closing sessions",
					"outage", time.Since(downSince).String())
				w.closer.CloseAllSessions("broker unavailable")
				downSince = time.Time{}
			}
		}
	}
}
