package clients

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultAnthropicURL   = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	anthropicVersion      = "2023-06-01"
	anthropicMaxTokens    = 4096
)

// --- Anthropic (/v1/messages) ---
type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type anthropicReq struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []anthropicMsg `json:"messages"`
}
type anthropicResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type Anthropic struct {
	h      *HTTP
	url    string
	apiKey string
	model  string
}

func NewAnthropic(h *HTTP, baseURL, apiKey, model string) *Anthropic {
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{h: h, url: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := anthropicReq{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  []anthropicMsg{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	var out anthropicResp
	if err := a.h.postJSON(ctx, "anthropic", a.url+"/v1/messages", headers, req, &out); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return b.String(), nil
}
