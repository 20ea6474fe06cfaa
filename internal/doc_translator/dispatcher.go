package doc_translator

import (
	"context"
	"errors"
	"fmt"

	"doc-bridge/internal/segment"
	"doc-bridge/internal/translator_provider"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
)

// Progress is reported after each batch is translated.
type Progress struct {
	Batch    int `json:"batch"`
	Batches  int `json:"batches"`
	Segments int `json:"segments"`
}

// ProgressFunc receives batch progress. It must not block for long; it runs
// on the dispatch goroutine.
type ProgressFunc func(Progress)

// Dispatcher sends batches to the provider one at a time in creation order.
type Dispatcher struct {
	logger   *zap.Logger
	provider translator_provider.TranslatorProvider
	tokens   translator_provider.TokenSource
}

func NewDispatcher(logger *zap.Logger, provider translator_provider.TranslatorProvider, tokens translator_provider.TokenSource) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		provider: provider,
		tokens:   tokens,
	}
}

// Dispatch translates every batch and returns the results flattened in
// segment order. Any failure discards everything translated so far.
func (d *Dispatcher) Dispatch(ctx context.Context, batches []segment.Batch, from, to string, onProgress ProgressFunc) ([]segment.Translation, error) {
	var out []segment.Translation

	for _, b := range batches {
		if len(b.Segments) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dispatch %s: %w", b.ID, err)
		}

		tok, err := d.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		texts := b.Texts()
		d.logger.Debug("dispatching batch",
			zap.String("batch", b.ID),
			zap.Int("segments", len(texts)),
			zap.Int("chars", b.CharLength()),
		)

		translated, err := d.provider.TranslateBatch(ctx, tok, texts, from, to)
		if err != nil {
			return nil, providerError(b.Index, err)
		}
		if len(translated) != len(texts) {
			return nil, &types.ProviderError{
				Batch:   b.Index,
				Message: fmt.Sprintf("got %d results for %d segments", len(translated), len(texts)),
			}
		}

		for i, text := range translated {
			out = append(out, segment.Translation{Source: texts[i], Text: text})
		}

		if onProgress != nil {
			onProgress(Progress{Batch: b.Index + 1, Batches: len(batches), Segments: len(out)})
		}
	}

	return out, nil
}

// providerError tags err with the failing batch.
func providerError(batch int, err error) error {
	var pe *types.ProviderError
	if errors.As(err, &pe) {
		tagged := *pe
		tagged.Batch = batch
		return &tagged
	}
	return &types.ProviderError{Batch: batch, Err: err}
}
