package config

import (
	"sync"
)

// OperationNarrative names the narrative prompt set.
const OperationNarrative = "narrative"

var (
	loadedPrompts   AllLoadedPrompts
	loadedPromptsMu sync.RWMutex
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	System string
	User   string
}

// AllLoadedPrompts holds all loaded prompts
type AllLoadedPrompts struct {
	Global    LoadedPrompts
	Narrative LoadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation.
// Operation-specific prompts win over global ones.
func GetPromptsForOperation(operationType string) LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	result := loadedPrompts.Global
	if operationType != OperationNarrative {
		return result
	}
	if loadedPrompts.Narrative.System != "" {
		result.System = loadedPrompts.Narrative.System
	}
	if loadedPrompts.Narrative.User != "" {
		result.User = loadedPrompts.Narrative.User
	}
	return result
}

func storeLoadedPrompts(p AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	loadedPrompts = p
	loadedPromptsMu.Unlock()
}
