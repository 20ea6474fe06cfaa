package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DefaultTokenInterval is how long a provider token is reused before refresh.
const DefaultTokenInterval = 590 * time.Second

// ErrStaleCredential is returned by UpdateToken when another writer refreshed
// the record since it was read.
var ErrStaleCredential = errors.New("credential was updated concurrently")

// Credential is the persisted token cache for one provider. Times are unix
// milliseconds; TimeLastRequested is zero until the first refresh.
type Credential struct {
	bun.BaseModel `bun:"table:translations,alias:tr"`

	ID                int64  `bun:"id,pk,autoincrement"`
	Name              string `bun:"name,notnull,unique"`
	Token             string `bun:"token,notnull"`
	TimeLastRequested int64  `bun:"time_last_requested,notnull"`
	TimeInterval      int64  `bun:"time_interval,notnull"`
}

// Interval returns TimeInterval as a duration.
func (c Credential) Interval() time.Duration {
	return time.Duration(c.TimeInterval) * time.Millisecond
}

// CredentialStore keeps credentials in a bun database.
type CredentialStore struct {
	db bun.IDB
}

func NewCredentialStore(db bun.IDB) *CredentialStore {
	return &CredentialStore{db: db}
}

// GetOrCreate returns the record for name, inserting one with the given
// refresh interval and no token if it does not exist yet.
func (s *CredentialStore) GetOrCreate(ctx context.Context, name string, interval time.Duration) (Credential, error) {
	if interval <= 0 {
		interval = DefaultTokenInterval
	}
	fresh := &Credential{Name: name, TimeInterval: interval.Milliseconds()}
	if _, err := s.db.NewInsert().
		Model(fresh).
		On("CONFLICT (name) DO NOTHING").
		Returning("NULL").
		Exec(ctx); err != nil {
		return Credential{}, fmt.Errorf("insert credential %s: %w", name, err)
	}

	var cred Credential
	if err := s.db.NewSelect().Model(&cred).Where("name = ?", name).Scan(ctx); err != nil {
		return Credential{}, fmt.Errorf("select credential %s: %w", name, err)
	}
	return cred, nil
}

// UpdateToken stores token and requestedAt on the record, but only if its
// time_last_requested still equals prevRequestedAt.
func (s *CredentialStore) UpdateToken(ctx context.Context, name, token string, requestedAt, prevRequestedAt int64) error {
	res, err := s.db.NewUpdate().
		Model((*Credential)(nil)).
		Set("token = ?", token).
		Set("time_last_requested = ?", requestedAt).
		Where("name = ?", name).
		Where("time_last_requested = ?", prevRequestedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update credential %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential %s: %w", name, err)
	}
	if n == 0 {
		return ErrStaleCredential
	}
	return nil
}
