package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"skillgap/internal/ai"
)

// Health status values
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

const defaultHealthCheckTimeout = 10 * time.Second

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.Timeout <= 0 {
		return defaultHealthCheckTimeout
	}
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler reports index and narrative model status. A missing index
// makes the service unhealthy (503); an unavailable model only degrades it,
// since analyses still succeed without a narrative.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  statusHealthy,
		"service": "skillgap",
		"version": s.Version,
	}

	indexStatus, indexReady := s.checkIndexHealth()
	response["index"] = indexStatus

	modelInfo := s.checkNarrativeModel(ctx)
	response["narrative_model"] = modelInfo

	if cb := circuitBreakerStats(s.Narrator); cb != nil {
		response["circuit_breakers"] = cb
	}

	status := http.StatusOK
	switch {
	case !indexReady:
		response["status"] = statusUnhealthy
		status = http.StatusServiceUnavailable
	case !modelInfo.Available:
		response["status"] = statusDegraded
	}

	writeJSON(w, status, response)
}

func (s *Server) checkIndexHealth() (map[string]any, bool) {
	if s.Index == nil {
		return map[string]any{"available": false, "error": "no knowledge base index is configured"}, false
	}
	stats := s.Index.Stats()
	return map[string]any{
		"available": stats.Chunks > 0,
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"embedder":  stats.Embedder,
	}, stats.Chunks > 0
}

func (s *Server) checkNarrativeModel(ctx context.Context) *ai.ModelInfo {
	if s.Narrator == nil {
		return &ai.ModelInfo{Error: "narrative generation is not configured"}
	}
	return s.Narrator.GetModelInfo(ctx)
}

// circuitBreakerStats returns breaker statistics when the narrator (or the
// provider behind an ai.Service) exposes them.
func circuitBreakerStats(n ai.Narrator) map[string]any {
	if svc, ok := n.(*ai.Service); ok {
		n = svc.Provider
	}
	if cb, ok := n.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return cb.GetCircuitBreakerStats()
	}
	return nil
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "skillgap",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.Index != nil {
		response["index"] = s.Index.Stats()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v. Fields absent from the body
// keep the values v already holds.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   title,
		Code:    code,
		Message: message,
	})
}
