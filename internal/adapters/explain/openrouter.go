package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/httpx"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
)

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "google/gemini-flash-1.5"
)

// OpenRouter calls an OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	model   string
}

func NewOpenRouter(client *httpx.Client, baseURL, apiKey, model string) *OpenRouter {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return &OpenRouter{client: client, baseURL: baseURL, apiKey: apiKey, model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenRouter) Explain(ctx context.Context, in ports.ExplainInput) (_ *domain.Explanation, err error) {
	defer obs.Time(ctx, "openrouter.Explain")(&err)

	if o.apiKey == "" {
		return nil, nil
	}

	req := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(in)}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	header := http.Header{"Authorization": []string{"Bearer " + o.apiKey}}

	var resp chatResponse
	if err := o.client.PostJSON(ctx, o.baseURL+"/chat/completions", header, req, &resp); err != nil {
		return nil, fmt.Errorf("openrouter: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openrouter: empty reply")
	}

	return ParseReply(resp.Choices[0].Message.Content)
}
