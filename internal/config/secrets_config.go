package config

// SecretsConfig holds the configuration for the secret scanner.
type SecretsConfig struct {
	PatternsFile           string `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty"`
	MinLength              int    `json:"min_length,omitempty" yaml:"min_length,omitempty" validate:"omitempty,min=1"`
	EnableKeywordPrefilter bool   `json:"enable_keyword_prefilter" yaml:"enable_keyword_prefilter"`
}

// NewDefaultSecretsConfig creates a new SecretsConfig with default values.
func NewDefaultSecretsConfig() SecretsConfig {
	return SecretsConfig{
		PatternsFile:           DefaultSecretsPatternsFile,
		MinLength:              DefaultSecretsMinLength,
		EnableKeywordPrefilter: true,
	}
}
