package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHealth struct{ connected atomic.Bool }

func (f *fakeHealth) IsConnected() bool { return f.connected.Load() }

type fakeCloser struct{ closed atomic.Int32 }

func (f *fakeCloser) CloseAllSessions(string) { f.closed.Add(1) }

func TestBusWatcherClosesSessionsAfterRecoveryWindow(t *testing.T) {
	req := require.New(t)
	health := &fakeHealth{}
	closer := &fakeCloser{}

	w := NewBusWatcher(slog.Default(), health, closer,
		10*time.Millisecond, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	// Outage longer than the recovery window.
	time.Sleep(200 * time.Millisecond)
	req.GreaterOrEqual(int(closer.closed.Load()), 1)

	cancel()
	<-done
}

func TestBusWatcherToleratesShortOutage(t *testing.T) {
	req := require.New(t)
	health := &fakeHealth{}
	health.connected.Store(true)
	closer := &fakeCloser{}

	w := NewBusWatcher(slog.Default(), health, closer,
		10*time.Millisecond, 300*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	// Blip shorter than the recovery window.
	health.connected.Store(false)
	time.Sleep(50 * time.Millisecond)
	health.connected.Store(true)
	time.Sleep(100 * time.Millisecond)

	req.Equal(int32(0), closer.closed.Load())

	cancel()
	<-done
}
