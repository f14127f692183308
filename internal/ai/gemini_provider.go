package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"skillgap/internal/config"
	apperrors "skillgap/internal/errors"
	"skillgap/internal/types"
)

const operationNarrative = "narrative"

// GeminiNarrator implements Narrator with Google Gemini. The client is
// created on first use so a missing API key only affects narrative requests.
type GeminiNarrator struct {
	config         *config.OperationAIConfig
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	logger         *apperrors.Logger
	checkTimeout   time.Duration

	mu     sync.Mutex
	client *genai.Client
}

var _ Narrator = (*GeminiNarrator)(nil)

// NewGeminiNarrator creates a narrator for the given operation configuration.
// The configuration must have been through config.GetNarrativeConfig.
func NewGeminiNarrator(cfg *config.OperationAIConfig, logger *apperrors.Logger) *GeminiNarrator {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	return &GeminiNarrator{
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationNarrative, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationNarrative, cfg, logger),
		logger:         logger,
		checkTimeout:   10 * time.Second,
	}
}

// getClient returns the shared client, creating it on first use.
func (g *GeminiNarrator) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if strings.TrimSpace(g.config.APIKey) == "" {
		return nil, apperrors.NewAIError(apperrors.ErrCodeMissingAPIKey,
			"Missing Gemini API key (set SKILLGAP_AI_APIKEY or GEMINI_API_KEY)", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}
	g.client = client
	return client, nil
}

// GenerateReport writes the narrative gap report for req.
func (g *GeminiNarrator) GenerateReport(ctx context.Context, req types.NarrativeRequest) (string, *TokenUsage, error) {
	tracer := otel.Tracer("skillgap.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.String("target_role", req.TargetRole),
		attribute.Int("input.matched_count", len(req.Matched)),
		attribute.Int("input.missing_count", len(req.Missing)),
	)

	client, err := g.getClient(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	if *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	prompts := config.GetPromptsForOperation(config.OperationNarrative)
	userPrompt := BuildPrompt(req, resolvePrompt(prompts.User, g.config.CustomPrompts.UserPrompts.Narrative, DefaultPreamble))
	genCfg := g.buildGenerateConfig(resolvePrompt(prompts.System, g.config.CustomPrompts.SystemPrompts.Narrative, ""), req.Instructions)

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationNarrative, func() (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genCfg)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		code := apperrors.ErrCodeAIServiceFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = apperrors.ErrCodeAITimeout
		}
		return "", nil, apperrors.NewAIError(code, "Failed to generate narrative report", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		err := apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed, "Model returned an empty narrative", nil)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("output.length", len(text)))
	return text, usage, nil
}

// buildGenerateConfig creates the generation settings for one request.
func (g *GeminiNarrator) buildGenerateConfig(configuredSystem, instructions string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	if g.config.MaxTokens != nil && *g.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = *g.config.MaxTokens
	}
	if *g.config.UseSystemPrompts {
		if sys := systemInstruction(configuredSystem, instructions); sys != "" {
			cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
		}
	}
	return cfg
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiNarrator) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	client, err := g.getClient(ctx)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.checkTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiNarrator) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"max_retries", maxRetries)
	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// backoff returns an exponential delay with up to 10% jitter, capped at 30s.
func backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(int64(float64(base)*0.1)+1)); err == nil {
		jitter = time.Duration(n.Int64())
	}
	return min(base+jitter, 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiNarrator) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Narrator. The genai client holds no resources that need releasing.
func (g *GeminiNarrator) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
