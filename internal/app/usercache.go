package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"padhub/api/internal/store"
)

// userCache maps logins and emails to user ids for membership transfer.
// It is filled from a prefix scan over the user records and rebuilt when a
// lookup misses, so freshly created accounts resolve without a restart.
type userCache struct {
	mu      sync.RWMutex
	byLogin map[string]string
	byEmail map[string]string
	loaded  bool
}

// resolveUsers maps submitted logins or emails to user ids. Unresolved
// entries are reported back as refused, resolved ones as accepted.
func (s *Service) resolveUsers(ctx context.Context, loginsOrEmails []string) (uids, accepted, refused []string, err error) {
	missing := false
	uids, accepted, refused = s.users.lookup(loginsOrEmails)
	if len(refused) > 0 || !s.users.isLoaded() {
		missing = true
	}
	if missing {
		if err := s.users.rebuild(ctx, s.store); err != nil {
			return nil, nil, nil, err
		}
		uids, accepted, refused = s.users.lookup(loginsOrEmails)
	}
	return uids, accepted, refused, nil
}

func (c *userCache) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *userCache) lookup(loginsOrEmails []string) (uids, accepted, refused []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, entry := range loginsOrEmails {
		uid, ok := c.byLogin[entry]
		if !ok {
			uid, ok = c.byEmail[entry]
		}
		if !ok {
			refused = append(refused, entry)
			continue
		}
		accepted = append(accepted, entry)
		if _, dup := seen[uid]; !dup {
			seen[uid] = struct{}{}
			uids = append(uids, uid)
		}
	}
	return uids, accepted, refused
}

func (c *userCache) rebuild(ctx context.Context, kv *store.Store) error {
	keys, err := kv.FindKeysByPrefix(ctx, store.UserPrefix)
	if err != nil {
		return err
	}
	raw, err := kv.GetKeys(ctx, keys)
	if err != nil {
		return err
	}

	byLogin := make(map[string]string, len(raw))
	byEmail := make(map[string]string, len(raw))
	for key, data := range raw {
		var u store.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if u.Login != "" {
			byLogin[u.Login] = u.ID
		}
		if u.Email != "" {
			byEmail[u.Email] = u.ID
		}
	}

	c.mu.Lock()
	c.byLogin = byLogin
	c.byEmail = byEmail
	c.loaded = true
	c.mu.Unlock()
	return nil
}
