package translator_provider

import (
	"fmt"

	"doc-bridge/internal/third_party/gemini"
	"doc-bridge/internal/third_party/microsoft"
	docbridge_openai "doc-bridge/internal/third_party/openai"
	"doc-bridge/internal/token"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
)

// Factory creates translator providers based on the specified type
type Factory struct {
	config *types.Config
	logger *zap.Logger
	store  token.Store
}

// NewFactory creates a new provider factory. The credential store backs the
// Microsoft token cache.
func NewFactory(config *types.Config, logger *zap.Logger, store token.Store) *Factory {
	return &Factory{
		config: config,
		logger: logger,
		store:  store,
	}
}

// CreateProvider creates a translator provider and the token source it is
// called with.
func (f *Factory) CreateProvider(providerType ProviderType) (TranslatorProvider, TokenSource, error) {
	switch providerType {
	case ProviderMicrosoft:
		client := microsoft.NewClient(f.config.Microsoft, f.config.Translator.RequestTimeout)
		tokens := token.NewManager(f.logger, microsoft.CredentialName, f.config.Translator.TokenInterval, f.store, client)
		return client, tokens, nil
	case ProviderOpenAI:
		return docbridge_openai.NewOpenAIClient(f.config.OpenAI), token.Static(""), nil
	case ProviderGemini:
		client, err := gemini.NewGeminiClient(f.config.Gemini)
		if err != nil {
			return nil, nil, err
		}
		return client, token.Static(""), nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
