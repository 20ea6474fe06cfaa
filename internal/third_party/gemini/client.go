package gemini

import (
	"context"
	"fmt"

	"doc-bridge/internal/third_party/batchprompt"
	"doc-bridge/pkg/types"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(geminiConfig types.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := geminiConfig.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client: client,
		model:  model,
	}, nil
}

// TranslateBatch asks Gemini for a JSON array holding the batch's
// translations. The token is unused; the client carries the API key.
func (c *Client) TranslateBatch(ctx context.Context, _ string, texts []string, from, to string) ([]string, error) {
	req := batchprompt.NewRequest(texts)
	if req.Empty() {
		return req.Decode("")
	}

	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(req.Prompt(from, to)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, &types.ProviderError{Err: fmt.Errorf("gemini: %w", err)}
	}

	out, err := req.Decode(resp.Text())
	if err != nil {
		return nil, &types.ProviderError{Err: fmt.Errorf("gemini: %w", err)}
	}
	return out, nil
}
