package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"padhub/api/internal/store"
)

// GetGroup loads a single group record.
func (s *Service) GetGroup(ctx context.Context, id string) (store.Group, error) {
	var g store.Group
	if err := s.store.Get(ctx, store.GroupKey(id), &g); err != nil {
		if err == store.ErrNotFound {
			return store.Group{}, domainError(404, CodeInexistent, "group does not exist", nil)
		}
		return store.Group{}, err
	}
	return g, nil
}

// GetPad loads a single pad record.
func (s *Service) GetPad(ctx context.Context, id string) (store.Pad, error) {
	var p store.Pad
	if err := s.store.Get(ctx, store.PadKey(id), &p); err != nil {
		if err == store.ErrNotFound {
			return store.Pad{}, domainError(404, CodeInexistent, "pad does not exist", nil)
		}
		return store.Pad{}, err
	}
	return p, nil
}

// GetGroupWithPads returns the group plus its pads resolved to full
// records, keyed by pad id. An empty pads list short-circuits without a
// batch call.
func (s *Service) GetGroupWithPads(ctx context.Context, gid string) (store.Group, map[string]store.Pad, error) {
	g, err := s.GetGroup(ctx, gid)
	if err != nil {
		return store.Group{}, nil, err
	}
	pads, err := resolve[store.Pad](ctx, s.store, store.PadPrefix, g.Pads)
	if err != nil {
		return store.Group{}, nil, err
	}
	return g, pads, nil
}

// GroupsView is the answer to GetGroupsForUser: the user's groups, plus
// their pads and roster users when extra data was requested.
type GroupsView struct {
	Groups map[string]store.Group `json:"groups"`
	Pads   map[string]store.Pad   `json:"pads,omitempty"`
	Users  map[string]store.User  `json:"users,omitempty"`
}

// GetGroupsForUser resolves all groups of the user's denormalized Groups
// set. With withExtra it additionally gathers the pads and roster users of
// those groups in one batch each.
func (s *Service) GetGroupsForUser(ctx context.Context, user store.User, withExtra bool) (GroupsView, error) {
	groups, err := resolve[store.Group](ctx, s.store, store.GroupPrefix, user.Groups)
	if err != nil {
		return GroupsView{}, err
	}
	view := GroupsView{Groups: groups}
	if !withExtra {
		return view, nil
	}

	var padIDs, userIDs []string
	for _, g := range groups {
		padIDs = union(padIDs, g.Pads)
		userIDs = union(userIDs, union(g.Admins, g.Users))
	}
	if view.Pads, err = resolve[store.Pad](ctx, s.store, store.PadPrefix, padIDs); err != nil {
		return GroupsView{}, err
	}
	if view.Users, err = resolve[store.User](ctx, s.store, store.UserPrefix, userIDs); err != nil {
		return GroupsView{}, err
	}
	return view, nil
}

// GetBookmarkedGroups resolves the user's bookmarked group ids.
func (s *Service) GetBookmarkedGroups(ctx context.Context, user store.User) (map[string]store.Group, error) {
	return resolve[store.Group](ctx, s.store, store.GroupPrefix, user.Bookmarks.Groups)
}

// GetBookmarkedPads resolves the user's bookmarked pad ids.
func (s *Service) GetBookmarkedPads(ctx context.Context, user store.User) (map[string]store.Pad, error) {
	return resolve[store.Pad](ctx, s.store, store.PadPrefix, user.Bookmarks.Pads)
}

// GetWatchedGroups resolves the user's watched group ids.
func (s *Service) GetWatchedGroups(ctx context.Context, user store.User) (map[string]store.Group, error) {
	return resolve[store.Group](ctx, s.store, store.GroupPrefix, user.Watchlist.Groups)
}

// GetWatchedPads resolves the user's watched pad ids.
func (s *Service) GetWatchedPads(ctx context.Context, user store.User) (map[string]store.Pad, error) {
	return resolve[store.Pad](ctx, s.store, store.PadPrefix, user.Watchlist.Pads)
}

// GetUser loads a user record.
func (s *Service) GetUser(ctx context.Context, id string) (store.User, error) {
	var u store.User
	if err := s.store.Get(ctx, store.UserKey(id), &u); err != nil {
		if err == store.ErrNotFound {
			return store.User{}, domainError(404, CodeInexistent, "user does not exist", nil)
		}
		return store.User{}, err
	}
	return u, nil
}

// resolve batch-reads prefix-namespaced records by id, returning a map
// keyed by bare id. Ids whose record is missing are absent from the result.
func resolve[T any](ctx context.Context, kv *store.Store, prefix string, ids []string) (map[string]T, error) {
	out := make(map[string]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}
	raw, err := kv.GetKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	for key, data := range raw {
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out[strings.TrimPrefix(key, prefix)] = record
	}
	return out, nil
}
