// Package microsoft talks to the Microsoft Translator text API: the token
// issuing endpoint and the batch translate endpoint.
package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"doc-bridge/pkg/types"

	"github.com/go-resty/resty/v2"
)

// CredentialName keys the token record in the credential store.
const CredentialName = "MICROSOFT_TRANSLATION"

type Client struct {
	cfg  types.MicrosoftConfig
	http *resty.Client
}

type textItem struct {
	Text string `json:"Text"`
}

type translateItem struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg types.MicrosoftConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(timeout),
	}
}

// FetchToken asks the token endpoint for a new bearer token. The endpoint
// answers with the raw token text.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	r, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey).
		SetBody("").
		Post(c.cfg.TokenURL)
	if err != nil {
		return "", err
	}
	if r.IsError() {
		return "", fmt.Errorf("token endpoint: %s; body: %s", r.Status(), abbreviate(r.String(), 500))
	}
	return strings.TrimSpace(r.String()), nil
}

// TranslateBatch sends one request with all texts and returns the first
// translation of each, in request order.
func (c *Client) TranslateBatch(ctx context.Context, token string, texts []string, from, to string) ([]string, error) {
	body := make([]textItem, len(texts))
	for i, t := range texts {
		body[i] = textItem{Text: t}
	}

	params := map[string]string{"to": to, "textType": "plain"}
	if from != "" {
		params["from"] = from
	}

	var apiErr errorEnvelope
	r, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(params).
		SetBody(body).
		SetError(&apiErr).
		Post(c.cfg.BaseURL)
	if err != nil {
		return nil, &types.ProviderError{Err: err}
	}
	if r.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = abbreviate(r.String(), 500)
		}
		return nil, &types.ProviderError{Status: r.StatusCode(), Message: msg}
	}

	// the service can report failures in a successful response
	var result []translateItem
	if err := json.Unmarshal(r.Body(), &result); err != nil {
		if json.Unmarshal(r.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, &types.ProviderError{
				Status:  r.StatusCode(),
				Message: fmt.Sprintf("%s (code %d)", apiErr.Error.Message, apiErr.Error.Code),
			}
		}
		return nil, &types.ProviderError{
			Status:  r.StatusCode(),
			Message: "decode response: " + abbreviate(r.String(), 500),
			Err:     err,
		}
	}
	if len(result) != len(texts) {
		return nil, &types.ProviderError{
			Status:  r.StatusCode(),
			Message: fmt.Sprintf("got %d results for %d texts", len(result), len(texts)),
		}
	}
	out := make([]string, len(result))
	for i, item := range result {
		if len(item.Translations) == 0 {
			return nil, &types.ProviderError{
				Status: r.StatusCode(),
				Err:    errors.New("result has no translations"),
			}
		}
		out[i] = item.Translations[0].Text
	}
	return out, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
