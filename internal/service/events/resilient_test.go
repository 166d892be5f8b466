package events

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

var errBroker = errors.New("broker unavailable")

type flakyPublisher struct {
	failures int
	err      error
	calls    int
}

func (f *flakyPublisher) PublishOrderEvent(context.Context, domain.OrderEventType, domain.Order) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger.WithField("test", "events")
}

func newTestPublisher(next domain.EventPublisher, cfg RetryConfig, breaker *CircuitBreaker) (*ResilientPublisher, *[]time.Duration) {
	p := NewResilientPublisher(next, cfg, breaker, testLogger())
	var delays []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return p, &delays
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected MaxAttempts: %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 || cfg.MaxDelay <= 0 {
		t.Fatalf("delays must be positive: %+v", cfg)
	}
	if cfg.BackoffFactor <= 1 {
		t.Fatalf("backoff factor should be > 1: %f", cfg.BackoffFactor)
	}
}

func TestResilientPublisherRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 4, InitialDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond, BackoffFactor: 2}
	order := domain.Order{ID: domain.FirstOrderID}

	t.Run("retry then success", func(t *testing.T) {
		next := &flakyPublisher{failures: 2, err: errBroker}
		p, delays := newTestPublisher(next, cfg, nil)

		err := p.PublishOrderEvent(context.Background(), domain.OrderEventCreated, order)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.calls != 3 {
			t.Fatalf("expected 3 attempts, got %d", next.calls)
		}
		if len(*delays) != 2 || (*delays)[0] != 10*time.Millisecond || (*delays)[1] != 20*time.Millisecond {
			t.Fatalf("unexpected backoff delays: %v", *delays)
		}
	})

	t.Run("delay is capped", func(t *testing.T) {
		next := &flakyPublisher{failures: 10, err: errBroker}
		p, delays := newTestPublisher(next, cfg, nil)

		err := p.PublishOrderEvent(context.Background(), domain.OrderEventCreated, order)
		if !errors.Is(err, errBroker) {
			t.Fatalf("expected broker error, got %v", err)
		}
		if next.calls != 4 {
			t.Fatalf("expected 4 attempts, got %d", next.calls)
		}
		if got := (*delays)[len(*delays)-1]; got != 25*time.Millisecond {
			t.Fatalf("expected capped delay, got %s", got)
		}
	})

	t.Run("canceled context is not retried", func(t *testing.T) {
		next := &flakyPublisher{failures: 10, err: context.Canceled}
		p, delays := newTestPublisher(next, cfg, nil)

		err := p.PublishOrderEvent(context.Background(), domain.OrderEventDeleted, order)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if next.calls != 1 || len(*delays) != 0 {
			t.Fatalf("expected a single attempt, got calls=%d delays=%v", next.calls, *delays)
		}
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		next := &flakyPublisher{failures: 10, err: errBroker}
		p := NewResilientPublisher(next, cfg, nil, testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := p.PublishOrderEvent(ctx, domain.OrderEventUpdated, order)
		if !errors.Is(err, errBroker) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected joined broker and context errors, got %v", err)
		}
		if next.calls != 1 {
			t.Fatalf("expected a single attempt, got %d", next.calls)
		}
	})
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, testLogger())
	cb.now = func() time.Time { return now }

	failing := func() error { return errBroker }
	ok := func() error { return nil }

	require.ErrorIs(t, cb.Execute("op", failing), errBroker)
	require.Equal(t, CircuitClosed, cb.State())
	require.ErrorIs(t, cb.Execute("op", failing), errBroker)
	require.Equal(t, CircuitOpen, cb.State())

	called := false
	err := cb.Execute("op", func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.False(t, called, "open breaker must not call fn")

	// по истечении resetTimeout пропускается одна пробная попытка
	now = now.Add(2 * time.Minute)
	require.ErrorIs(t, cb.Execute("op", failing), errBroker)
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute("op", ok))
	require.Equal(t, CircuitClosed, cb.State())
	require.Equal(t, "closed", cb.State().String())
}

func TestCircuitBreaker_HalfOpenAdmitsSingleTrial(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute, testLogger())
	cb.now = func() time.Time { return now }

	require.ErrorIs(t, cb.Execute("op", func() error { return errBroker }), errBroker)
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Minute)
	admitted := 0
	for i := 0; i < 5; i++ {
		if cb.allow("op") {
			admitted++
		}
	}
	require.Equal(t, 1, admitted)
	require.Equal(t, CircuitHalfOpen, cb.State())

	// пока пробный вызов не завершился, Execute не вызывает fn
	called := false
	err := cb.Execute("op", func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.False(t, called)

	cb.report("op", nil)
	require.Equal(t, CircuitClosed, cb.State())
	for i := 0; i < 3; i++ {
		require.True(t, cb.allow("op"), "closed breaker admits every call")
	}
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute, testLogger())
	cb.now = func() time.Time { return now }

	cb.report("op", errBroker)
	now = now.Add(2 * time.Minute)
	require.True(t, cb.allow("op"))
	cb.report("op", errBroker)

	require.Equal(t, CircuitOpen, cb.State())
	require.False(t, cb.allow("op"), "reset timeout restarts after a failed trial")

	now = now.Add(2 * time.Minute)
	require.True(t, cb.allow("op"))
	require.False(t, cb.allow("op"))
}

func TestResilientPublisherWithBreaker(t *testing.T) {
	next := &flakyPublisher{failures: 100, err: errBroker}
	breaker := NewCircuitBreaker(1, time.Hour, testLogger())
	p, _ := newTestPublisher(next, RetryConfig{MaxAttempts: 2}, breaker)

	err := p.PublishOrderEvent(context.Background(), domain.OrderEventCreated, domain.Order{ID: 1})
	require.ErrorIs(t, err, errBroker)
	require.Equal(t, 2, next.calls)

	err = p.PublishOrderEvent(context.Background(), domain.OrderEventCreated, domain.Order{ID: 2})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, 2, next.calls, "open breaker must short-circuit the broker")
}

func TestNewResilientPublisherDefaults(t *testing.T) {
	p := NewResilientPublisher(domain.NoopPublisher{}, RetryConfig{}, nil, nil)
	require.Equal(t, 1, p.config.MaxAttempts)
	require.NotNil(t, p.logger)
	require.NoError(t, p.PublishOrderEvent(context.Background(), domain.OrderEventCreated, domain.Order{}))
}
