// Package internal provides the application configuration and runtime
// wiring.
package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Encoder providers.
const (
	EncoderOpenAI = "openai"
	EncoderHash   = "hash"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Docs      DocsConfig        `yaml:"docs"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Artifacts ArtifactsConfig   `yaml:"artifacts"`
	Encoder   EncoderConfig     `yaml:"encoder"`
	Health    HealthConfig      `yaml:"health"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Docs.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Artifacts.Validate(); err != nil {
		return err
	}
	if err := c.Encoder.Validate(); err != nil {
		return err
	}
	if err := c.Health.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DocsConfig holds the documentation tree settings.
type DocsConfig struct {
	// Path is the docs root directory.
	Path string `yaml:"path"`
	// IgnorePatterns are base-name globs excluded from scans.
	IgnorePatterns []string `yaml:"ignore_patterns"`
	// ExemptPatterns are base-name globs the healer never synthesizes
	// front-matter for.
	ExemptPatterns []string `yaml:"exempt_patterns"`
	// DefaultKeywords seed synthesized front-matter.
	DefaultKeywords []string `yaml:"default_keywords"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the lexical index database settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ArtifactsConfig holds the derived-artifact directory settings.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the artifacts configuration.
func (c *ArtifactsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// EncoderConfig holds the semantic encoder settings.
//
// Provider selects the implementation:
//   - "openai": remote embeddings; APIKeyEnv names the environment
//     variable carrying the key.
//   - "hash": deterministic offline token-bucket embeddings, useful
//     for air-gapped setups and tests.
type EncoderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	// DegradeToKeyword falls back to lexical search instead of failing
	// when the encoder is unreachable.
	DegradeToKeyword bool `yaml:"degrade_to_keyword"`
}

// Validate validates the encoder configuration.
func (c *EncoderConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(EncoderOpenAI, EncoderHash)),
		validation.Field(&c.Dimension, validation.Required, validation.Min(8)),
	); err != nil {
		return err
	}
	if c.Provider == EncoderOpenAI && c.Model == "" {
		return fmt.Errorf("encoder: provider is %q but model is empty", EncoderOpenAI)
	}
	return nil
}

// HealthConfig tunes scan acceptance.
type HealthConfig struct {
	// MaxViolations bounds the violation list in health reports and is
	// the count above which the scan command exits non-zero.
	MaxViolations int `yaml:"max_violations"`
}

// Validate validates the health configuration.
func (c *HealthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxViolations, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Docs: DocsConfig{
			Path:            "./docs",
			DefaultKeywords: []string{"documentation", "reference"},
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Artifacts: ArtifactsConfig{
			Dir: "./artifacts",
		},
		Encoder: EncoderConfig{
			Provider:         EncoderHash,
			Dimension:        256,
			APIKeyEnv:        "OPENAI_API_KEY",
			DegradeToKeyword: true,
		},
		Health: HealthConfig{
			MaxViolations: 5,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
