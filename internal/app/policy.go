package app

import (
	"context"

	"padhub/api/internal/store"
)

// checkGroupReferences verifies that every admin, user and pad id referenced
// by the group exists in storage, with a single batch existence query.
// Partial existence is a hard failure; nothing has been written yet at this
// point.
func (s *Service) checkGroupReferences(ctx context.Context, g store.Group) error {
	keys := make([]string, 0, len(g.Admins)+len(g.Users)+len(g.Pads))
	for _, uid := range union(g.Admins, g.Users) {
		keys = append(keys, store.UserKey(uid))
	}
	for _, pid := range g.Pads {
		keys = append(keys, store.PadKey(pid))
	}
	ok, err := s.store.AllExist(ctx, keys)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(400, CodeItemsNotFound, "some referenced users or pads do not exist", nil)
	}
	return nil
}

// checkPadReferences verifies the pad's user list and owning group exist.
func (s *Service) checkPadReferences(ctx context.Context, p store.Pad) error {
	keys := make([]string, 0, len(p.Users)+1)
	for _, uid := range p.Users {
		keys = append(keys, store.UserKey(uid))
	}
	keys = append(keys, store.GroupKey(p.Group))
	ok, err := s.store.AllExist(ctx, keys)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(400, CodeItemsNotFound, "some referenced users or the group do not exist", nil)
	}
	return nil
}

// requireAdmins rejects any group state that would leave the admin set
// empty. Checked before any write.
func requireAdmins(g store.Group) error {
	if len(g.Admins) == 0 {
		return domainError(409, CodeUniqueAdmin, "a group must keep at least one admin", nil)
	}
	return nil
}
