package ai

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"skillgap/internal/config"
	apperrors "skillgap/internal/errors"
	"skillgap/internal/types"
)

func narrativeConfig(apiKey string) *config.OperationAIConfig {
	cfg := &config.Config{
		AI: config.AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     time.Second,
			APIKey:      apiKey,
			Temperature: 0.2,
			MaxTokens:   900,
		},
	}
	op := cfg.GetNarrativeConfig()
	return &op
}

func TestGenerateReportMissingAPIKey(t *testing.T) {
	narrator := NewGeminiNarrator(narrativeConfig(""), nil)

	text, usage, err := narrator.GenerateReport(context.Background(), types.NarrativeRequest{TargetRole: "Data Engineer"})
	if err == nil {
		t.Fatal("Expected an error without an API key")
	}
	if text != "" || usage != nil {
		t.Errorf("Expected no output, got %q, %v", text, usage)
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Type != apperrors.ErrorTypeAI || appErr.Code != apperrors.ErrCodeMissingAPIKey {
		t.Errorf("Expected ai/%s, got %s/%s", apperrors.ErrCodeMissingAPIKey, appErr.Type, appErr.Code)
	}
	if !apperrors.IsRecoverable(err) {
		t.Error("Missing API key should be recoverable")
	}
}

func TestGetModelInfoMissingAPIKey(t *testing.T) {
	narrator := NewGeminiNarrator(narrativeConfig(""), nil)

	info := narrator.GetModelInfo(context.Background())
	if info.Available {
		t.Error("Model should not be available without an API key")
	}
	if info.Name != "gemini-2.0-flash" {
		t.Errorf("Expected model name gemini-2.0-flash, got %q", info.Name)
	}
	if info.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestBuildGenerateConfig(t *testing.T) {
	cfg := narrativeConfig("key")
	useSystem := true
	cfg.UseSystemPrompts = &useSystem
	narrator := NewGeminiNarrator(cfg, nil)

	gen := narrator.buildGenerateConfig("Be kind.", "Use sources.")
	if gen.Temperature == nil || *gen.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", gen.Temperature)
	}
	if gen.MaxOutputTokens != 900 {
		t.Errorf("Expected 900 max output tokens, got %d", gen.MaxOutputTokens)
	}
	if gen.SystemInstruction == nil || len(gen.SystemInstruction.Parts) != 1 {
		t.Fatal("Expected a single-part system instruction")
	}
	if got := gen.SystemInstruction.Parts[0].Text; got != "Be kind.\n\nUse sources." {
		t.Errorf("Unexpected system instruction %q", got)
	}

	useSystem = false
	if gen := narrator.buildGenerateConfig("Be kind.", "Use sources."); gen.SystemInstruction != nil {
		t.Error("System instruction should be omitted when system prompts are disabled")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", fmt.Errorf("bad prompt"), false},
		{"network", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"googleapi 503", &googleapi.Error{Code: 503}, true},
		{"googleapi 400", &googleapi.Error{Code: 400}, false},
		{"genai 429", genai.APIError{Code: 429}, true},
		{"genai 404", genai.APIError{Code: 404}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	if d := backoff(1); d < time.Second || d > 1100*time.Millisecond {
		t.Errorf("First backoff out of range: %v", d)
	}
	if d := backoff(10); d != 30*time.Second {
		t.Errorf("Expected capped backoff of 30s, got %v", d)
	}
}

func TestExtractTokenUsage(t *testing.T) {
	if extractTokenUsage(nil) != nil {
		t.Error("Expected nil usage for nil response")
	}
	usage := extractTokenUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 20,
			TotalTokenCount:      30,
		},
	})
	if usage == nil || usage.InputTokens != 10 || usage.OutputTokens != 20 || usage.TotalTokens != 30 {
		t.Errorf("Unexpected usage %+v", usage)
	}
}

func TestNewServiceUnsupportedProvider(t *testing.T) {
	cfg := narrativeConfig("key")
	cfg.Provider = "openai"

	_, err := NewService(cfg, nil)
	if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
		t.Fatalf("Expected config error, got %v", err)
	}

	cfg.Provider = "gemini"
	svc, err := NewService(cfg, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := svc.Provider.(*GeminiNarrator); !ok {
		t.Errorf("Expected GeminiNarrator provider, got %T", svc.Provider)
	}
}
