package app

import (
	"context"
	"errors"
	"log"

	"padhub/api/internal/secret"
	"padhub/api/internal/store"
)

// CreateOrUpdateGroup normalizes params, enforces membership policy, checks
// every referenced id for existence, writes the record and indexes the
// roster. With params.ID set it updates the existing group, preserving the
// pads list, the creation time and the password of a private group when no
// replacement is supplied.
func (s *Service) CreateOrUpdateGroup(ctx context.Context, params GroupParams) (store.Group, error) {
	var result store.Group
	err := withRetry(func() error {
		g, err := normalizeGroup(params)
		if err != nil {
			return err
		}

		passwordSupplied := params.Password != nil && *params.Password != ""
		if passwordSupplied {
			hash, err := secret.Hash(*params.Password)
			if err != nil {
				return err
			}
			g.Password = hash
		}

		if params.ID != "" {
			var old store.Group
			if err := s.store.Get(ctx, store.GroupKey(params.ID), &old); err != nil {
				if err == store.ErrNotFound {
					return domainError(404, CodeInexistent, "group does not exist", nil)
				}
				return err
			}
			mergeGroupUpdate(&g, old, passwordSupplied)
		} else {
			newGroupIdentity(&g)
			// Suffix entropy is relied upon; a taken id is an internal
			// error, not caller input.
			taken, err := s.store.Exists(ctx, store.GroupKey(g.ID))
			if err != nil {
				return err
			}
			if taken {
				return domainError(500, CodeIDCollision, "generated group id already exists", g.ID)
			}
		}

		if err := requireAdmins(g); err != nil {
			return err
		}
		if err := s.checkGroupReferences(ctx, g); err != nil {
			return err
		}

		if err := s.store.SetRecord(ctx, store.GroupKey(g.ID), &g); err != nil {
			return err
		}
		if err := s.idx.indexUserGroups(ctx, true, g.ID, union(g.Admins, g.Users)); err != nil {
			return err
		}
		result = g
		return nil
	})
	return result, err
}

// DeleteGroup removes a group and everything that depends on it. The
// sequence is: fetch the group, delete every child pad (each pad deletion
// de-indexes itself from the group and scrubs bookmarks), then remove the
// group record, then strip the group id from every former roster member.
//
// The group record is not removed until every child pad deletion succeeded.
// A failed child aborts with CASCADE_REMOVAL_PROBLEM and leaves the group
// present and consistent: already-deleted pads were de-indexed as they
// went, so retrying the deletion converges.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	var g store.Group
	if err := s.store.Get(ctx, store.GroupKey(id), &g); err != nil {
		if err == store.ErrNotFound {
			return domainError(404, CodeInexistent, "group does not exist", nil)
		}
		return err
	}

	var failed []string
	for _, pid := range append([]string{}, g.Pads...) {
		err := s.DeletePad(ctx, pid)
		if err == nil {
			continue
		}
		var de *DomainError
		if errors.As(err, &de) && de.Code == CodeInexistent {
			// Stale reference left by an earlier interrupted cascade; the
			// record is already gone, only the index entry remains.
			err = s.idx.indexGroupPads(ctx, false, pid, id)
			if err == nil {
				continue
			}
		}
		log.Printf("group %s: cascade delete pad %s: %v", id, pid, err)
		failed = append(failed, pid)
	}
	if len(failed) > 0 {
		return domainError(500, CodeCascade, "some pads could not be removed", failed)
	}

	var final store.Group
	if err := s.store.Remove(ctx, store.GroupKey(id), &final); err != nil {
		if err == store.ErrNotFound {
			// Concurrent deletion won; de-index with our snapshot.
			final = g
		} else {
			return err
		}
	}
	return s.idx.indexUserGroups(ctx, false, id, union(final.Admins, final.Users))
}

// ResignFromGroup removes a user from the group's roster and cleans the
// user's own relationship sets. The sole admin cannot resign.
func (s *Service) ResignFromGroup(ctx context.Context, gid, uid string) (store.Group, error) {
	var result store.Group
	err := withRetry(func() error {
		var g store.Group
		if err := s.store.Get(ctx, store.GroupKey(gid), &g); err != nil {
			if err == store.ErrNotFound {
				return domainError(404, CodeInexistent, "group does not exist", nil)
			}
			return err
		}
		if !containsString(union(g.Admins, g.Users), uid) {
			return domainError(403, CodeNotMember, "user is not a member of this group", nil)
		}
		if len(g.Admins) == 1 && g.Admins[0] == uid {
			return domainError(409, CodeUniqueAdmin, "the only admin cannot resign", nil)
		}

		g.Admins = removeString(g.Admins, uid)
		g.Users = removeString(g.Users, uid)
		if err := s.store.SetRecord(ctx, store.GroupKey(g.ID), &g); err != nil {
			return err
		}
		if err := s.idx.indexUserGroups(ctx, false, gid, []string{uid}); err != nil {
			return err
		}
		result = g
		return nil
	})
	return result, err
}

// TransferResult reports which of the submitted logins or emails were
// resolved to accounts.
type TransferResult struct {
	Accepted []string `json:"accepted"`
	Refused  []string `json:"refused"`
}

// TransferMembership applies a full membership replacement. With invite
// true the resolved users become the member set (any of them holding admin
// rights is demoted first); with invite false they become the admin set
// (members are promoted out of the user list first). Ids previously present
// but absent from the new list are removed and de-indexed. The operation is
// rejected when it would leave the admin set empty.
func (s *Service) TransferMembership(ctx context.Context, invite bool, gid string, loginsOrEmails []string) (store.Group, TransferResult, error) {
	uids, accepted, refused, err := s.resolveUsers(ctx, loginsOrEmails)
	if err != nil {
		return store.Group{}, TransferResult{}, err
	}
	outcome := TransferResult{Accepted: accepted, Refused: refused}

	var result store.Group
	err = withRetry(func() error {
		var g store.Group
		if err := s.store.Get(ctx, store.GroupKey(gid), &g); err != nil {
			if err == store.ErrNotFound {
				return domainError(404, CodeInexistent, "group does not exist", nil)
			}
			return err
		}

		var removed []string
		if invite {
			// Demote incoming users out of the admin set before making
			// them members.
			g.Admins = subtract(g.Admins, intersect(g.Admins, uids))
			if err := requireAdmins(g); err != nil {
				return err
			}
			removed = subtract(g.Users, uids)
			g.Users = subtract(dedup(uids), g.Admins)
		} else {
			// Promote incoming members out of the user set before making
			// them admins.
			g.Users = subtract(g.Users, intersect(g.Users, uids))
			removed = subtract(g.Admins, uids)
			g.Admins = subtract(dedup(uids), g.Users)
			if err := requireAdmins(g); err != nil {
				return err
			}
		}

		// Removed ids are de-indexed first; the add pass below restores
		// anyone still on the roster, so a crash in between self-heals on
		// retry.
		if err := s.idx.indexUserGroups(ctx, false, g.ID, removed); err != nil {
			return err
		}
		if err := s.store.SetRecord(ctx, store.GroupKey(g.ID), &g); err != nil {
			return err
		}
		if err := s.idx.indexUserGroups(ctx, true, g.ID, union(g.Admins, g.Users)); err != nil {
			return err
		}
		result = g
		return nil
	})
	return result, outcome, err
}
