package doc_translator

import (
	"context"

	"doc-bridge/internal/segment"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
)

// Result is a translated document.
type Result struct {
	TotalCharLength int                   `json:"totalCharLength"`
	Translations    []segment.Translation `json:"-"`
	Lines           []string              `json:"lines"`
}

// Text renders the translated lines, each terminated by a newline.
func (r Result) Text() string {
	return segment.Join(r.Lines)
}

// DocTranslatorService segments plain text, translates it batch by batch and
// rebuilds the translated document.
type DocTranslatorService struct {
	logger     *zap.Logger
	dispatcher *Dispatcher
	opts       segment.Options
}

// NewDocTranslatorService creates a new instance of DocTranslatorService
func NewDocTranslatorService(logger *zap.Logger, dispatcher *Dispatcher, opts segment.Options) *DocTranslatorService {
	return &DocTranslatorService{
		logger:     logger,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// BuildSegments segments data without calling the provider.
func (s *DocTranslatorService) BuildSegments(data []byte) segment.Result {
	res := segment.Split(string(data), s.opts)
	s.logger.Debug("segmented document",
		zap.Int("total_char_length", res.TotalCharLength),
		zap.Int("segments", len(res.Segments)),
		zap.Int("boundaries", res.Boundaries()),
	)
	return res
}

// Translate segments data and translates it.
func (s *DocTranslatorService) Translate(ctx context.Context, data []byte, from, to string, onProgress ProgressFunc) (Result, error) {
	return s.TranslateSegments(ctx, s.BuildSegments(data), from, to, onProgress)
}

// TranslateSegments translates an already segmented document. It either
// returns the whole translation or an error, never a partial result.
func (s *DocTranslatorService) TranslateSegments(ctx context.Context, res segment.Result, from, to string, onProgress ProgressFunc) (Result, error) {
	if len(res.Segments) == 0 {
		return Result{}, &types.ValidationError{Reason: "input produced no segments"}
	}
	if to == "" {
		return Result{}, &types.ValidationError{Reason: "target language is required"}
	}

	batches := segment.Partition(res.Segments)

	s.logger.Info("translating document",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("total_char_length", res.TotalCharLength),
		zap.Int("batches", len(batches)),
	)

	translations, err := s.dispatcher.Dispatch(ctx, batches, from, to, onProgress)
	if err != nil {
		s.logger.Warn("translation failed", zap.Error(err))
		return Result{}, err
	}

	lines := segment.Reassemble(translations)
	s.logger.Info("document translated",
		zap.Int("segments", len(translations)),
		zap.Int("lines", len(lines)),
	)

	return Result{
		TotalCharLength: res.TotalCharLength,
		Translations:    translations,
		Lines:           lines,
	}, nil
}
