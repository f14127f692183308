package config

import "path/filepath"

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.MaxTokens == nil {
		maxTokens := c.AI.MaxTokens
		opCfg.MaxTokens = &maxTokens
	}
	if opCfg.UseSystemPrompts == nil {
		use := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &use
	}
}

// GetNarrativeConfig returns the AI configuration for narrative generation with fallback to global config
func (c *Config) GetNarrativeConfig() OperationAIConfig {
	config := c.AI.Narrative

	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.Narrative == "" {
		config.CustomPrompts.SystemPrompts.Narrative = c.AI.CustomPrompts.SystemPrompts.Narrative
	}
	if config.CustomPrompts.UserPrompts.Narrative == "" {
		config.CustomPrompts.UserPrompts.Narrative = c.AI.CustomPrompts.UserPrompts.Narrative
	}
	if config.CustomPrompts.SystemPrompts.NarrativeFile == "" {
		config.CustomPrompts.SystemPrompts.NarrativeFile = c.AI.CustomPrompts.SystemPrompts.NarrativeFile
	}
	if config.CustomPrompts.UserPrompts.NarrativeFile == "" {
		config.CustomPrompts.UserPrompts.NarrativeFile = c.AI.CustomPrompts.UserPrompts.NarrativeFile
	}

	return config
}

// GetEmbeddingConfig returns the embedding configuration, falling back to the global API key
func (c *Config) GetEmbeddingConfig() EmbeddingConfig {
	config := c.AI.Embedding
	if config.APIKey == "" {
		config.APIKey = c.AI.APIKey
	}
	return config
}

// RolesPath returns the folder holding role scope files.
func (k KnowledgeConfig) RolesPath() string {
	if k.RolesDir != "" {
		return k.RolesDir
	}
	return filepath.Join(k.DataDir, "roles")
}

// GetLoadedNarrativePrompts returns a copy of the loaded prompts for narrative generation
func (c *Config) GetLoadedNarrativePrompts() LoadedPrompts {
	return GetPromptsForOperation(OperationNarrative)
}
