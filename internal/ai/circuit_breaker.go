package ai

import (
	"fmt"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"skillgap/internal/config"
	"skillgap/internal/errors"
)

// CircuitBreaker guards calls returning T. A nil breaker runs calls directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewAICircuitBreaker creates the breaker for content generation calls of one operation.
// It returns nil when the breaker is disabled.
func NewAICircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker[*genai.GenerateContentResponse] {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}
	cbCfg := cfg.CircuitBreaker
	return newCircuitBreaker[*genai.GenerateContentResponse](
		fmt.Sprintf("AI-%s", operationType), operationType, cbCfg, cbCfg.MinRequests, cbCfg.FailureThreshold, logger)
}

// NewModelCircuitBreaker creates the breaker for model metadata lookups. Model
// checks only feed health reporting, so they trip later than generation calls.
func NewModelCircuitBreaker(operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *CircuitBreaker[*genai.Model] {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}
	return newCircuitBreaker[*genai.Model](
		fmt.Sprintf("AI-Model-%s", operationType), operationType, cfg.CircuitBreaker, 5, 0.8, logger)
}

func newCircuitBreaker[T any](name, operationType string, cfg config.CircuitBreakerConfig, minRequests uint32, threshold float64, logger *errors.Logger) *CircuitBreaker[T] {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String())
		},
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn under the breaker.
func (b *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *CircuitBreaker[T]) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether calls are flowing normally.
func (b *CircuitBreaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
