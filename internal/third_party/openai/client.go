package docbridge_openai

import (
	"context"
	"fmt"

	"doc-bridge/internal/third_party/batchprompt"
	"doc-bridge/pkg/types"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const defaultModel = "gpt-5-nano"

type Client struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(openAIConfig types.OpenAIConfig) *Client {
	c := openai.NewClient(option.WithAPIKey(openAIConfig.APIKey))
	model := openAIConfig.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{client: &c, model: model}
}

// TranslateBatch asks the model to translate the batch in one response. The
// token is unused; the SDK carries the API key.
func (c *Client) TranslateBatch(ctx context.Context, _ string, texts []string, from, to string) ([]string, error) {
	req := batchprompt.NewRequest(texts)
	if req.Empty() {
		return req.Decode("")
	}

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(req.Prompt(from, to))},
	})
	if err != nil {
		return nil, &types.ProviderError{Err: fmt.Errorf("openai: %w", err)}
	}

	out, err := req.Decode(resp.OutputText())
	if err != nil {
		return nil, &types.ProviderError{Err: fmt.Errorf("openai: %w", err)}
	}
	return out, nil
}
