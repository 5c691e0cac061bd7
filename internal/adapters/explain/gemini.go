package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// Gemini calls the Generative Language generateContent endpoint.
type Gemini struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGemini(client *httpx.Client, baseURL, apiKey, model string) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, baseURL: baseURL, apiKey: apiKey, model: model}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Explain(ctx context.Context, in ports.ExplainInput) (_ *domain.Explanation, err error) {
	defer obs.Time(ctx, "gemini.Explain")(&err)

	if g.apiKey == "" {
		return nil, nil
	}

	var req geminiRequest
	req.Contents = []geminiContent{{Parts: []geminiPart{{Text: BuildPrompt(in)}}}}
	req.GenerationConfig.Temperature = temperature
	req.GenerationConfig.MaxOutputTokens = maxTokens

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	header := http.Header{"X-Goog-Api-Key": []string{g.apiKey}}

	var resp geminiResponse
	if err := g.client.PostJSON(ctx, endpoint, header, req, &resp); err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini: empty reply")
	}

	return ParseReply(resp.Candidates[0].Content.Parts[0].Text)
}
