package clients

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -destination=mocks/completer.go -package=mocks . Completer

// Completer is a text-generation backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ProviderConfig selects and configures one Completer.
type ProviderConfig struct {
	Provider string // gemini | openai | anthropic
	APIKey   string
	Model    string
	BaseURL  string // empty uses the provider default
}

// NewCompleter builds the Completer named by cfg.Provider.
func NewCompleter(h *HTTP, cfg ProviderConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Provider)
	}
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGemini(h, cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAI(h, cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case "anthropic", "claude":
		return NewAnthropic(h, cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
