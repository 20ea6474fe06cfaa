package translator_provider

import "context"

// TranslatorProvider translates one batch of segment texts per call. The
// result must be index-aligned with texts.
type TranslatorProvider interface {
	TranslateBatch(ctx context.Context, token string, texts []string, from, to string) ([]string, error)
}

// TokenSource returns the credential passed to TranslateBatch.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ProviderType represents the type of translation provider
type ProviderType string

const (
	ProviderMicrosoft ProviderType = "microsoft"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGemini    ProviderType = "gemini"
)
