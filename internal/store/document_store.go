package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// DocumentTTL is how long a translated document is kept.
const DocumentTTL = 30 * 24 * time.Hour

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Document is a translated file owned by a caller.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Owner       string    `bun:"owner,notnull,unique:owner_file_name" json:"owner"`
	FileName    string    `bun:"file_name,notnull,unique:owner_file_name" json:"name"`
	ContentType string    `bun:"content_type,notnull" json:"contentType"`
	LangFrom    string    `bun:"lang_from,notnull" json:"fromLanguage"`
	LangTo      string    `bun:"lang_to,notnull" json:"toLanguage"`
	CharLength  int       `bun:"char_length,notnull" json:"charLength"`
	Data        []byte    `bun:"data,notnull" json:"-"`
	IsActive    bool      `bun:"is_active,notnull" json:"isActive"`
	CreatedAt   time.Time `bun:"create_date,notnull" json:"createDate"`
	ExpiresAt   time.Time `bun:"expiry_date,notnull" json:"expiryDate"`
}

// DocumentStore persists translated documents in a bun database.
type DocumentStore struct {
	db  bun.IDB
	now func() time.Time
}

func NewDocumentStore(db bun.IDB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

// Create inserts doc, filling its id, timestamps and active flag.
func (s *DocumentStore) Create(ctx context.Context, doc *Document) error {
	now := s.now().UTC()
	doc.IsActive = true
	doc.CreatedAt = now
	doc.ExpiresAt = now.Add(DocumentTTL)
	if _, err := s.db.NewInsert().Model(doc).Exec(ctx); err != nil {
		return fmt.Errorf("insert document %s: %w", doc.FileName, err)
	}
	return nil
}

// ListByOwner returns the owner's documents oldest first, without content.
func (s *DocumentStore) ListByOwner(ctx context.Context, owner string) ([]Document, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		ExcludeColumn("data").
		Where("owner = ?", owner).
		Order("create_date ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents for %s: %w", owner, err)
	}
	return docs, nil
}

// Get loads a document with its content.
func (s *DocumentStore) Get(ctx context.Context, id int64) (Document, error) {
	var doc Document
	err := s.db.NewSelect().Model(&doc).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %d: %w", id, err)
	}
	return doc, nil
}

// Delete removes the owner's documents with the given ids and reports how
// many were removed.
func (s *DocumentStore) Delete(ctx context.Context, owner string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.NewDelete().
		Model((*Document)(nil)).
		Where("owner = ?", owner).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return res.RowsAffected()
}

// FileNamesWithPrefix returns the owner's file names that start with prefix.
// The match is literal: LIKE wildcards in prefix are escaped.
func (s *DocumentStore) FileNamesWithPrefix(ctx context.Context, owner, prefix string) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*Document)(nil)).
		Column("file_name").
		Where("owner = ?", owner).
		Where("file_name LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"%").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("find file names starting with %s: %w", prefix, err)
	}
	return names, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
