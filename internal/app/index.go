package app

import (
	"context"
	"encoding/json"
	"fmt"

	"padhub/api/internal/store"
)

// indexer maintains the denormalized secondary indexes: user.groups,
// group.pads, and the per-user bookmark and watchlist sets. Every mutation
// path funnels through it so the invariant-preserving logic lives in one
// place.
//
// Its operations are batch read-modify-write and intentionally not atomic
// across keys: a crash mid-way leaves a partial index, and re-running the
// triggering action converges, since adding and removing ids from sets is
// idempotent.
type indexer struct {
	store *store.Store
}

// indexUserGroups adds or removes the group id in the Groups set of every
// named user. On removal it also purges the id from the user's bookmark and
// watchlist sets. Users that no longer exist (deleted mid-cascade) are
// silently skipped.
func (ix *indexer) indexUserGroups(ctx context.Context, add bool, gid string, uids []string) error {
	uids = dedup(uids)
	if len(uids) == 0 {
		return nil
	}
	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = store.UserKey(uid)
	}
	raw, err := ix.store.GetKeys(ctx, keys)
	if err != nil {
		return err
	}

	updated := make(map[string]any, len(raw))
	for key, data := range raw {
		var u store.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if add {
			if containsString(u.Groups, gid) {
				continue
			}
			u.Groups = append(u.Groups, gid)
		} else {
			u.Groups = removeString(u.Groups, gid)
			u.Bookmarks.Groups = removeString(u.Bookmarks.Groups, gid)
			u.Watchlist.Groups = removeString(u.Watchlist.Groups, gid)
		}
		u.Bump()
		updated[key] = u
	}
	return ix.store.SetKeys(ctx, updated)
}

// indexGroupPads adds or removes a pad id in the owning group's Pads list.
// On removal it first strips the pad id from every roster member's bookmark
// and watchlist sets, then writes the group back. A group that is already
// gone is skipped silently, so index repair stays idempotent.
func (ix *indexer) indexGroupPads(ctx context.Context, add bool, padID, groupID string) error {
	var g store.Group
	if err := ix.store.Get(ctx, store.GroupKey(groupID), &g); err != nil {
		if err == store.ErrNotFound && !add {
			return nil
		}
		return err
	}

	if add {
		if containsString(g.Pads, padID) {
			return nil
		}
		g.Pads = append(g.Pads, padID)
		g.Bump()
		return ix.store.Set(ctx, store.GroupKey(g.ID), g)
	}

	g.Pads = removeString(g.Pads, padID)
	if err := ix.purgePadMarks(ctx, padID, union(g.Admins, g.Users)); err != nil {
		return err
	}
	g.Bump()
	return ix.store.Set(ctx, store.GroupKey(g.ID), g)
}

// purgePadMarks removes a pad id from the bookmark and watchlist sets of
// the given users, writing back only the records that changed.
func (ix *indexer) purgePadMarks(ctx context.Context, padID string, uids []string) error {
	uids = dedup(uids)
	if len(uids) == 0 {
		return nil
	}
	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = store.UserKey(uid)
	}
	raw, err := ix.store.GetKeys(ctx, keys)
	if err != nil {
		return err
	}

	updated := make(map[string]any)
	for key, data := range raw {
		var u store.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if !containsString(u.Bookmarks.Pads, padID) && !containsString(u.Watchlist.Pads, padID) {
			continue
		}
		u.Bookmarks.Pads = removeString(u.Bookmarks.Pads, padID)
		u.Watchlist.Pads = removeString(u.Watchlist.Pads, padID)
		u.Bump()
		updated[key] = u
	}
	return ix.store.SetKeys(ctx, updated)
}
