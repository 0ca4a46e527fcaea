package config

import "os"

// AIModels defines which Anthropic models to use for different tasks
type AIModels struct {
	// Default is for full-quality generation (summaries, reports)
	Default string `json:"default"`

	// Fast is the low-latency tier used for chat turns and translation
	Fast string `json:"fast"`
}

// AIConfig holds all text-generation configuration
type AIConfig struct {
	APIKey    string   `json:"-"` // Never serialize
	BaseURL   string   `json:"baseUrl"`
	Models    AIModels `json:"models"`
	TimeoutMS int      `json:"timeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL: getEnvOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		Models: AIModels{
			Default: getEnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			Fast:    getEnvOrDefault("ANTHROPIC_MODEL_FAST", "claude-haiku-4-5-20251001"),
		},
		TimeoutMS: 60000,
	}
}

// IsEnabled returns true if the generator backend is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}
