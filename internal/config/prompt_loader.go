package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFile pairs a configured prompt file with where its content goes.
type promptFile struct {
	path   string
	label  string
	target *string
}

func (c *Config) promptFiles(into *AllLoadedPrompts) []promptFile {
	return []promptFile{
		{c.AI.CustomPrompts.SystemPrompts.NarrativeFile, "global system", &into.Global.System},
		{c.AI.CustomPrompts.UserPrompts.NarrativeFile, "global user", &into.Global.User},
		{c.AI.Narrative.CustomPrompts.SystemPrompts.NarrativeFile, "narrative system", &into.Narrative.System},
		{c.AI.Narrative.CustomPrompts.UserPrompts.NarrativeFile, "narrative user", &into.Narrative.User},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified.
// Inline prompts from the config are used when no file is given.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	loaded := AllLoadedPrompts{
		Global: LoadedPrompts{
			System: c.AI.CustomPrompts.SystemPrompts.Narrative,
			User:   c.AI.CustomPrompts.UserPrompts.Narrative,
		},
		Narrative: LoadedPrompts{
			System: c.AI.Narrative.CustomPrompts.SystemPrompts.Narrative,
			User:   c.AI.Narrative.CustomPrompts.UserPrompts.Narrative,
		},
	}

	count := 0
	for _, pf := range c.promptFiles(&loaded) {
		if pf.path == "" {
			continue
		}
		content, err := c.loadPromptFromFile(pf.path, pf.label)
		if err != nil {
			return err
		}
		*pf.target = content
		count++
	}
	storeLoadedPrompts(loaded)

	if count == 0 {
		log.Println("[CONFIG] No custom prompt files configured - using inline or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", count)
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, label string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", label, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", label, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", label, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", label, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)", label, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string
	var scratch AllLoadedPrompts

	for _, pf := range c.promptFiles(&scratch) {
		if pf.path == "" {
			continue
		}
		absPath, err := filepath.Abs(pf.path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", pf.label, pf.path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", pf.label, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
