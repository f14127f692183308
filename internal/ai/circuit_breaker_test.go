package ai

import (
	"fmt"
	"testing"
	"time"

	"google.golang.org/genai"

	"skillgap/internal/config"
)

func breakerConfig(enabled bool) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.5,
		},
	}
}

func TestCircuitBreakerConfigurationMapping(t *testing.T) {
	cb := NewAICircuitBreaker("narrative", breakerConfig(true), nil)
	if cb == nil {
		t.Fatal("Circuit breaker should not be nil")
	}

	stats := cb.GetStats()
	if name, _ := stats["name"].(string); name != "AI-narrative" {
		t.Errorf("Expected circuit breaker name 'AI-narrative', got %q", name)
	}
	if state, _ := stats["state"].(string); state != "closed" {
		t.Errorf("Expected initial state 'closed', got %q", state)
	}
	if enabled, _ := stats["enabled"].(bool); !enabled {
		t.Error("Circuit breaker should be enabled")
	}

	model := NewModelCircuitBreaker("narrative", breakerConfig(true), nil)
	if name, _ := model.GetStats()["name"].(string); name != "AI-Model-narrative" {
		t.Errorf("Expected model breaker name 'AI-Model-narrative', got %q", name)
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewAICircuitBreaker("narrative", breakerConfig(true), nil)
	failing := func() (*genai.GenerateContentResponse, error) {
		return nil, fmt.Errorf("upstream unavailable")
	}

	for range 2 {
		if _, err := cb.Execute(failing); err == nil {
			t.Fatal("Expected the failing call to return an error")
		}
	}

	if cb.IsHealthy() {
		t.Fatal("Circuit breaker should be open after repeated failures")
	}

	called := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return &genai.GenerateContentResponse{}, nil
	})
	if err == nil {
		t.Error("Expected open breaker to reject the call")
	}
	if called {
		t.Error("Open breaker should not run the call")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewAICircuitBreaker("narrative", breakerConfig(false), nil)
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker passes calls straight through.
	resp := &genai.GenerateContentResponse{}
	got, err := cb.Execute(func() (*genai.GenerateContentResponse, error) { return resp, nil })
	if err != nil || got != resp {
		t.Errorf("Expected passthrough, got %v, %v", got, err)
	}
	if !cb.IsHealthy() {
		t.Error("Disabled breaker should report healthy")
	}
	if enabled, _ := cb.GetStats()["enabled"].(bool); enabled {
		t.Error("Disabled breaker should report enabled=false")
	}
}
