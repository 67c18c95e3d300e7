// Package config holds runtime settings for the model clients and the
// generation pipeline. Defaults target a local Ollama install.
package config

import "time"

// LLM configures the text model endpoint.
type LLM struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultLLM returns settings for a local Ollama endpoint.
func DefaultLLM() LLM {
	return LLM{
		BaseURL:     "http://localhost:11434/v1",
		APIKey:      "ollama",
		Model:       "mistral",
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     120 * time.Second,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
	}
}

// VLM configures the vision model endpoint. Vision models are slower,
// so the timeout is higher than for text.
type VLM struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultVLM returns settings for a local LLaVA-style endpoint.
func DefaultVLM() VLM {
	return VLM{
		BaseURL:     "http://localhost:11434",
		Model:       "llava",
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     180 * time.Second,
		MaxRetries:  3,
		RetryDelay:  3 * time.Second,
	}
}

// Generation configures validation strictness and retry behavior of the
// generation loop.
type Generation struct {
	MinExplanationLength int
	RequireReferences    bool
	MinReferences        int
	MaxValidationRetries int
	UseFewShot           bool
}

// DefaultGeneration returns the standard generation settings.
func DefaultGeneration() Generation {
	return Generation{
		MinExplanationLength: 20,
		RequireReferences:    true,
		MinReferences:        1,
		MaxValidationRetries: 2,
		UseFewShot:           true,
	}
}
