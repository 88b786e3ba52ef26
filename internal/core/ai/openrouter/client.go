// Package openrouter is the generative-model provider client. The extraction
// layer depends on the Generator interface, not on this vendor.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

const baseURL = "https://openrouter.ai/api/v1"

// Generator is the capability the extraction layer depends on: one
// schema-constrained generation call, optionally multimodal.
type Generator interface {
	Generate(ctx context.Context, prompt, imageData string) (string, error)
	HasAPIKey() bool
}

// Client calls the OpenRouter chat completions API.
type Client struct {
	cfg    *config.Config
	client *resty.Client
}

// NewClient creates an OpenRouter client.
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.OpenRouter.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-extractor.dev").
		SetHeader("X-Title", "Recipe Extractor")

	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// HasAPIKey reports whether a credential is configured. Checked before any
// call is attempted so a missing key is a distinct precondition error.
func (c *Client) HasAPIKey() bool {
	return strings.TrimSpace(c.cfg.OpenRouter.APIKey) != ""
}

// Generate issues one chat completion call. imageData, when non-empty, is
// attached as a data-URI image part for vision models.
func (c *Client) Generate(ctx context.Context, prompt, imageData string) (string, error) {
	start := time.Now()

	msgContent := []map[string]interface{}{
		{
			"type": "text",
			"text": prompt,
		},
	}
	if imageData != "" {
		url := imageData
		if !strings.HasPrefix(imageData, "data:image/") {
			url = fmt.Sprintf("data:image/jpeg;base64,%s", imageData)
		}
		msgContent = append(msgContent, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": url,
			},
		})
	}

	req := map[string]interface{}{
		"model": c.cfg.OpenRouter.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": msgContent,
			},
		},
		"max_tokens": c.cfg.OpenRouter.MaxTokens,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	common.LogAICall(time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned error: %s", common.Truncate(resp.String(), 500))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	content := result.Choices[0].Message.Content
	common.LogDebug("ai response received",
		zap.Int("length", len(content)),
	)

	return content, nil
}
