package events

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

// ErrCircuitOpen возвращается, пока circuit breaker не пропускает публикации.
var ErrCircuitOpen = errors.New("event publishing circuit breaker is open")

// RetryConfig конфигурация повторных попыток публикации.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// CircuitState: состояние circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker перестаёт пропускать вызовы после maxFailures ошибок подряд
// и даёт одну пробную попытку через resetTimeout.
type CircuitBreaker struct {
	mu           sync.Mutex
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	failures    int
	lastFailure time.Time
	state       CircuitState
	// probing: в half-open уже пропущен пробный вызов, остальные отклоняются до его итога.
	probing bool
	logger  *log.Entry
}

// NewCircuitBreaker создаёт новый circuit breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	if logger == nil {
		logger = log.New().WithField("component", "circuit-breaker")
	}

	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        CircuitClosed,
		logger:       logger,
	}
}

// State возвращает текущее состояние.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute выполняет fn, если breaker её пропускает.
func (cb *CircuitBreaker) Execute(operation string, fn func() error) error {
	if !cb.allow(operation) {
		return ErrCircuitOpen
	}

	err := fn()
	cb.report(operation, err)
	return err
}

func (cb *CircuitBreaker) allow(operation string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}

	if cb.now().Sub(cb.lastFailure) < cb.resetTimeout {
		return false
	}
	cb.state = CircuitHalfOpen
	cb.probing = true
	cb.logger.WithField("operation", operation).Info("circuit breaker half-open")
	return true
}

func (cb *CircuitBreaker) report(operation string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
			if cb.state != CircuitOpen {
				cb.logger.WithFields(log.Fields{
					"operation": operation,
					"failures":  cb.failures,
				}).Warn("circuit breaker opened")
			}
			cb.state = CircuitOpen
		}
		return
	}

	if cb.state == CircuitHalfOpen {
		cb.logger.WithField("operation", operation).Info("circuit breaker closed")
	}
	cb.state = CircuitClosed
	cb.failures = 0
}

// ResilientPublisher оборачивает EventPublisher повторами с экспоненциальной
// задержкой и circuit breaker, чтобы недоступный брокер не тормозил каждый запрос.
type ResilientPublisher struct {
	next    domain.EventPublisher
	config  RetryConfig
	breaker *CircuitBreaker
	logger  *log.Entry
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewResilientPublisher создаёт обёртку над next. breaker может быть nil.
func NewResilientPublisher(next domain.EventPublisher, config RetryConfig, breaker *CircuitBreaker, logger *log.Entry) *ResilientPublisher {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1
	}
	if logger == nil {
		logger = log.New().WithField("component", "resilient-publisher")
	}

	return &ResilientPublisher{
		next:    next,
		config:  config,
		breaker: breaker,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// PublishOrderEvent публикует событие с повторами.
func (p *ResilientPublisher) PublishOrderEvent(ctx context.Context, eventType domain.OrderEventType, order domain.Order) error {
	publish := func() error {
		return p.next.PublishOrderEvent(ctx, eventType, order)
	}
	if p.breaker == nil {
		return p.executeWithRetry(ctx, eventType, order.ID, publish)
	}
	return p.breaker.Execute(string(eventType), func() error {
		return p.executeWithRetry(ctx, eventType, order.ID, publish)
	})
}

func (p *ResilientPublisher) executeWithRetry(ctx context.Context, eventType domain.OrderEventType, orderID int64, fn func() error) error {
	var lastErr error
	delay := p.config.InitialDelay

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				p.logger.WithFields(log.Fields{
					"event_type": eventType,
					"order_id":   orderID,
					"attempt":    attempt,
				}).Info("event published after retry")
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err) || attempt == p.config.MaxAttempts {
			break
		}

		p.logger.WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
			"attempt":    attempt,
			"delay":      delay,
		}).WithError(err).Debug("event publish failed, retrying")

		if err := p.sleep(ctx, delay); err != nil {
			return errors.Join(lastErr, err)
		}

		delay = time.Duration(float64(delay) * p.config.BackoffFactor)
		if p.config.MaxDelay > 0 && delay > p.config.MaxDelay {
			delay = p.config.MaxDelay
		}
	}

	return lastErr
}

// shouldRetry: отменённый контекст повторять бессмысленно.
func shouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ domain.EventPublisher = (*ResilientPublisher)(nil)
