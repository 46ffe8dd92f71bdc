package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Encoder.Provider != EncoderHash {
		t.Errorf("default encoder = %q, want %q", cfg.Encoder.Provider, EncoderHash)
	}
	if got := cfg.App.HTTP.Address(); got != ":8080" {
		t.Errorf("address = %q, want :8080", got)
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	cfg := HTTPConfig{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("port above range should fail validation")
	}
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero port should fail validation")
	}
}

func TestDocsConfig_RequiresPath(t *testing.T) {
	cfg := DocsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty docs path should fail validation")
	}
}

func TestEncoderConfig_InvalidProvider(t *testing.T) {
	cfg := EncoderConfig{Provider: "magic", Dimension: 256}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider should fail validation")
	}
}

func TestEncoderConfig_OpenAIRequiresModel(t *testing.T) {
	cfg := EncoderConfig{Provider: EncoderOpenAI, Dimension: 256}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("openai provider without model should fail")
	}
	if !strings.Contains(err.Error(), "model is empty") {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Model = "text-embedding-3-small"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("openai provider with model should pass: %v", err)
	}
}

func TestEncoderConfig_MinDimension(t *testing.T) {
	cfg := EncoderConfig{Provider: EncoderHash, Dimension: 4}
	if err := cfg.Validate(); err == nil {
		t.Fatal("dimension below minimum should fail validation")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestHealthConfig_NegativeMaxViolations(t *testing.T) {
	cfg := HealthConfig{MaxViolations: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative max_violations should fail validation")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}

	cfg = NewDefaultConfig()
	cfg.Encoder.Provider = "magic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch encoder error")
	}
}
