// Package token caches a provider access token in a credential store and
// refreshes it once its interval has elapsed.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"doc-bridge/internal/store"
	"doc-bridge/pkg/types"

	"go.uber.org/zap"
)

// Store is the credential persistence the manager needs.
type Store interface {
	GetOrCreate(ctx context.Context, name string, interval time.Duration) (store.Credential, error)
	UpdateToken(ctx context.Context, name, token string, requestedAt, prevRequestedAt int64) error
}

// Fetcher requests a new token from the provider.
type Fetcher interface {
	FetchToken(ctx context.Context) (string, error)
}

// Manager hands out the cached token for one provider.
//
// Refreshes are serialised inside the process. Separate processes sharing a
// store may still both refresh near expiry; the store's compare-and-update
// makes the loser keep its own fresh token without overwriting the record.
type Manager struct {
	name     string
	interval time.Duration
	store    Store
	fetcher  Fetcher
	logger   *zap.Logger
	now      func() time.Time

	mu sync.Mutex
}

func NewManager(logger *zap.Logger, name string, interval time.Duration, s Store, f Fetcher) *Manager {
	if interval <= 0 {
		interval = store.DefaultTokenInterval
	}
	return &Manager{
		name:     name,
		interval: interval,
		store:    s,
		fetcher:  f,
		logger:   logger,
		now:      time.Now,
	}
}

// Token returns a valid token, fetching a new one when the cached one is
// older than the record's interval or was never requested.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.GetOrCreate(ctx, m.name, m.interval)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	now := m.now().UnixMilli()
	elapsed := cred.TimeInterval
	if cred.TimeLastRequested != 0 {
		elapsed = now - cred.TimeLastRequested
	}
	if elapsed < cred.TimeInterval {
		return cred.Token, nil
	}

	tok, err := m.fetcher.FetchToken(ctx)
	if err != nil {
		return "", &types.AuthError{Provider: m.name, Err: err}
	}
	if tok == "" {
		return "", &types.AuthError{Provider: m.name, Err: errors.New("empty token")}
	}

	err = m.store.UpdateToken(ctx, m.name, tok, now, cred.TimeLastRequested)
	switch {
	case errors.Is(err, store.ErrStaleCredential):
		m.logger.Debug("credential refreshed concurrently, keeping own token",
			zap.String("provider", m.name))
	case err != nil:
		return "", fmt.Errorf("save credential: %w", err)
	default:
		m.logger.Info("provider token refreshed", zap.String("provider", m.name))
	}
	return tok, nil
}

// Static is a token source for providers authenticated by other means.
type Static string

func (s Static) Token(context.Context) (string, error) { return string(s), nil }
