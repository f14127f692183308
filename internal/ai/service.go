package ai

import (
	"context"
	"fmt"

	"skillgap/internal/config"
	"skillgap/internal/errors"
	"skillgap/internal/types"
)

// Service wraps the configured narrative provider
type Service struct {
	Provider Narrator // Exported for access from server package
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

var _ Narrator = (*Service)(nil)

// NewService creates the narrative service from the merged narrative configuration.
func NewService(cfg *config.OperationAIConfig, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"has_api_key", cfg.APIKey != "")

	var provider Narrator
	switch cfg.Provider {
	case "gemini":
		provider = NewGeminiNarrator(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GenerateReport delegates to the provider.
func (s *Service) GenerateReport(ctx context.Context, req types.NarrativeRequest) (string, *TokenUsage, error) {
	return s.Provider.GenerateReport(ctx, req)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider.
func (s *Service) Close() error {
	return s.Provider.Close()
}
