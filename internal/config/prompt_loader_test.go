package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file: %v", err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.narrative.md", "  Narrative system prompt\n")
	userFile := writePrompt(t, tempDir, "user.narrative.md", "Narrative user preamble")

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: SystemPrompts{Narrative: "global inline system"},
			},
			Narrative: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{NarrativeFile: systemFile},
					UserPrompts:   UserPrompts{NarrativeFile: userFile},
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetPromptsForOperation(OperationNarrative)
	if loaded.System != "Narrative system prompt" {
		t.Errorf("Expected trimmed system prompt from file, got %q", loaded.System)
	}
	if loaded.User != "Narrative user preamble" {
		t.Errorf("Expected user prompt from file, got %q", loaded.User)
	}

	global := GetPromptsForOperation("other")
	if global.System != "global inline system" {
		t.Errorf("Expected inline global system prompt, got %q", global.System)
	}

	if config.AI.Narrative.CustomPrompts.SystemPrompts.NarrativeFile != systemFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestNarrativePromptsFallBackToGlobal(t *testing.T) {
	tempDir := t.TempDir()
	globalFile := writePrompt(t, tempDir, "global.md", "global system from file")

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: SystemPrompts{NarrativeFile: globalFile},
			},
		},
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := config.GetLoadedNarrativePrompts()
	if loaded.System != "global system from file" {
		t.Errorf("Expected global prompt as fallback, got %q", loaded.System)
	}
	if loaded.User != "" {
		t.Errorf("Expected no user prompt, got %q", loaded.User)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Narrative: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{NarrativeFile: validFile},
				},
			},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Narrative.CustomPrompts.UserPrompts.NarrativeFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	testFile := writePrompt(t, tempDir, "test.md", "Test prompt content")

	config := &Config{}
	content, err := config.loadPromptFromFile(testFile, "narrative system")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if content != "Test prompt content" {
		t.Errorf("Expected content %q, got %q", "Test prompt content", content)
	}

	emptyFile := writePrompt(t, tempDir, "empty.md", "   \n")
	if _, err := config.loadPromptFromFile(emptyFile, "narrative system"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := config.loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "narrative system"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}
