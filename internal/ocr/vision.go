package ocr

import (
	"context"
	"encoding/base64"
	"fmt"

	"receipt-meal-planner/internal/config"

	"github.com/go-resty/resty/v2"
)

// detectRequest is the payload for the text-detection endpoint.
type detectRequest struct {
	Document documentPayload `json:"document"`
	Features []feature       `json:"features"`
}

type documentPayload struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

// detectResponse is the text-detection reply. Only LINE blocks carry the
// per-line text this client cares about.
type detectResponse struct {
	Blocks []block `json:"blocks"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type block struct {
	BlockType string `json:"blockType"`
	Text      string `json:"text"`
}

// VisionClient calls a REST text-detection service.
type VisionClient struct {
	client   *resty.Client
	endpoint string
}

// NewVisionClient creates a text-detection client against the configured endpoint.
func NewVisionClient(cfg *config.Config) *VisionClient {
	client := resty.New().
		SetTimeout(cfg.ExternalTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", cfg.OCRAPIKey)

	return &VisionClient{
		client:   client,
		endpoint: cfg.OCREndpoint,
	}
}

// DetectLines submits the document and returns the detected line blocks in
// detection order.
func (c *VisionClient) DetectLines(ctx context.Context, document []byte) ([]string, error) {
	req := detectRequest{
		Document: documentPayload{
			Content: base64.StdEncoding.EncodeToString(document),
		},
		Features: []feature{{Type: "TEXT_DETECTION"}},
	}

	var result detectResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("text detection request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("text detection error: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	if result.Error != nil {
		return nil, fmt.Errorf("text detection error: %s", result.Error.Message)
	}

	var lines []string
	for _, b := range result.Blocks {
		if b.BlockType != "LINE" {
			continue
		}
		lines = append(lines, b.Text)
	}
	return lines, nil
}
