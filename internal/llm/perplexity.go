package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"receipt-meal-planner/internal/config"
	"receipt-meal-planner/internal/shared"
)

const (
	perplexityAPIURL = "https://api.perplexity.ai/chat/completions"
	perplexityModel  = "sonar"
)

// perplexityClient is a client for the Perplexity chat-completions API.
type perplexityClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewPerplexityClient creates a new Perplexity API client.
func NewPerplexityClient(cfg *config.Config) TextGenerator {
	return &perplexityClient{
		apiKey: cfg.PerplexityAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.ExternalTimeout,
		},
	}
}

// GenerateContent sends a prompt to the Perplexity model and returns the generated text.
func (c *perplexityClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	reqBody := map[string]interface{}{
		"model": perplexityModel,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "Be precise and concise.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens":        4096,
		"temperature":       0.2,
		"top_p":             0.9,
		"frequency_penalty": 1,
		"stream":            false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", perplexityAPIURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ContentResponse{}, fmt.Errorf("perplexity api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var pplxResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&pplxResp); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(pplxResp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: pplxResp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     pplxResp.Usage.PromptTokens,
			CompletionTokens: pplxResp.Usage.CompletionTokens,
			TotalTokens:      pplxResp.Usage.TotalTokens,
			Model:            perplexityModel,
		},
	}, nil
}
