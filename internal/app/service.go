// Package app implements the group/pad workspace core: record
// normalization, membership policy, secondary-index maintenance and the
// cascading multi-entity operations, on top of the flat key-value store.
package app

import (
	"context"
	"errors"

	"padhub/api/internal/config"
	"padhub/api/internal/search"
	"padhub/api/internal/store"
)

// contentStore is the document-editing collaborator: pad deletion must
// remove the stored text and chat history as external side effects.
type contentStore interface {
	RemoveContent(ctx context.Context, padID string) error
	RemoveChatHistory(ctx context.Context, padID string) error
}

type Service struct {
	cfg     config.Config
	store   *store.Store
	content contentStore
	search  *search.Service
	idx     indexer
	users   userCache
}

// New wires the service. search may be nil when no search backend is
// configured.
func New(cfg config.Config, kv *store.Store, content contentStore, searchService *search.Service) *Service {
	return &Service{
		cfg:     cfg,
		store:   kv,
		content: content,
		search:  searchService,
		idx:     indexer{store: kv},
	}
}

// Ping reports storage reachability.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CountGroups returns the number of group records in the store.
func (s *Service) CountGroups(ctx context.Context) (int, error) {
	return s.store.CountPrefix(ctx, store.GroupPrefix)
}

// CountPads returns the number of pad records in the store.
func (s *Service) CountPads(ctx context.Context) (int, error) {
	return s.store.CountPrefix(ctx, store.PadPrefix)
}

// mutationRetries bounds how often a read-modify-write is replayed after a
// concurrent writer invalidated the version check.
const mutationRetries = 3

// withRetry replays fn while it fails with a write conflict, re-reading
// state each attempt, and converts a persistent conflict into a caller
// error.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < mutationRetries; attempt++ {
		err = fn()
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return domainError(409, CodeConflict, "concurrent update, retry the operation", nil)
}
