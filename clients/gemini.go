package clients

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultGeminiURL   = "https://generativelanguage.googleapis.com"
	defaultGeminiModel = "gemini-2.5-flash"
)

// --- Gemini (generateContent) ---
type geminiPart struct {
	Text string `json:"text"`
}
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}
type geminiReq struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}
type geminiResp struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type Gemini struct {
	h      *HTTP
	url    string
	apiKey string
	model  string
}

func NewGemini(h *HTTP, baseURL, apiKey, model string) *Gemini {
	if baseURL == "" {
		baseURL = defaultGeminiURL
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{h: h, url: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := geminiReq{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	req.GenerationConfig.Temperature = 0.3

	var out geminiResp
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.url, g.model)
	if err := g.h.postJSON(ctx, "gemini", url, map[string]string{"x-goog-api-key": g.apiKey}, req, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates")
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
