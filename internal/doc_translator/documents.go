package doc_translator

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"doc-bridge/internal/store"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
)

const plainText = "text/plain"

// DocumentRepository stores translated documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *store.Document) error
	ListByOwner(ctx context.Context, owner string) ([]store.Document, error)
	Get(ctx context.Context, id int64) (store.Document, error)
	Delete(ctx context.Context, owner string, ids []int64) (int64, error)
	FileNamesWithPrefix(ctx context.Context, owner, prefix string) ([]string, error)
}

// DocumentService translates uploaded files and keeps the results per owner.
type DocumentService struct {
	logger     *zap.Logger
	translator *DocTranslatorService
	repo       DocumentRepository
}

func NewDocumentService(logger *zap.Logger, translator *DocTranslatorService, repo DocumentRepository) *DocumentService {
	return &DocumentService{
		logger:     logger,
		translator: translator,
		repo:       repo,
	}
}

// TranslateAndSave translates data and stores it under a name derived from
// fileName and the target language.
func (s *DocumentService) TranslateAndSave(ctx context.Context, owner, fileName string, data []byte, from, to string, onProgress ProgressFunc) (store.Document, error) {
	if owner == "" {
		return store.Document{}, &types.ValidationError{Reason: "owner is required"}
	}

	res, err := s.translator.Translate(ctx, data, from, to, onProgress)
	if err != nil {
		return store.Document{}, err
	}

	name, err := s.NewFilename(ctx, owner, fileName, to)
	if err != nil {
		return store.Document{}, err
	}

	doc := &store.Document{
		Owner:       owner,
		FileName:    name,
		ContentType: plainText,
		LangFrom:    from,
		LangTo:      to,
		CharLength:  res.TotalCharLength,
		Data:        []byte(res.Text()),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return store.Document{}, err
	}

	s.logger.Info("document saved",
		zap.String("owner", owner),
		zap.String("file_name", name),
		zap.Int64("id", doc.ID),
	)
	return *doc, nil
}

// NewFilename returns "<name>_<lang>.<ext>", numbered "_2", "_3", ... when
// the owner already has a file with that name. The number follows the
// highest one in use.
func (s *DocumentService) NewFilename(ctx context.Context, owner, fileName, toLang string) (string, error) {
	ext := path.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext) + "_" + toLang

	names, err := s.repo.FileNamesWithPrefix(ctx, owner, stem)
	if err != nil {
		return "", err
	}
	return nextFilename(stem, ext, names), nil
}

// nextFilename picks the name after the highest copy of stem+ext in names.
// The plain name counts as copy 1; names of other files are ignored.
func nextFilename(stem, ext string, names []string) string {
	highest := 0
	for _, name := range names {
		if n := copyNumber(stem, ext, name); n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return stem + ext
	}
	return fmt.Sprintf("%s_%d%s", stem, highest+1, ext)
}

// copyNumber returns 1 for stem+ext, n for stem_<n>+ext and 0 otherwise.
func copyNumber(stem, ext, name string) int {
	if name == stem+ext {
		return 1
	}
	rest, ok := strings.CutPrefix(name, stem+"_")
	if !ok {
		return 0
	}
	digits, ok := strings.CutSuffix(rest, ext)
	if !ok || digits == "" || strings.Trim(digits, "0123456789") != "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 2 {
		return 0
	}
	return n
}

// List returns the owner's translated files.
func (s *DocumentService) List(ctx context.Context, owner string) ([]types.TranslatedFile, error) {
	docs, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	files := make([]types.TranslatedFile, 0, len(docs))
	for _, d := range docs {
		files = append(files, types.TranslatedFile{
			ID:           d.ID,
			Name:         d.FileName,
			FromLanguage: d.LangFrom,
			ToLanguage:   d.LangTo,
		})
	}
	return files, nil
}

// Download returns a document owned by owner.
func (s *DocumentService) Download(ctx context.Context, owner string, id int64) (store.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return store.Document{}, err
	}
	if doc.Owner != owner {
		return store.Document{}, store.ErrNotFound
	}
	return doc, nil
}

// Delete removes documents and returns what the owner has left.
func (s *DocumentService) Delete(ctx context.Context, owner string, ids []int64) ([]types.TranslatedFile, error) {
	if len(ids) == 0 {
		return nil, &types.ValidationError{Reason: "no files to be deleted"}
	}
	n, err := s.repo.Delete(ctx, owner, ids)
	if err != nil {
		return nil, err
	}
	s.logger.Info("documents deleted", zap.String("owner", owner), zap.Int64("count", n))
	return s.List(ctx, owner)
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
