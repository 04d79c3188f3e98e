package app

import (
	"context"
	"encoding/json"
	"fmt"

	"padhub/api/internal/secret"
	"padhub/api/internal/search"
	"padhub/api/internal/store"
)

// CreateOrUpdatePad normalizes params, checks the referenced users and the
// owning group for existence, writes the record and indexes it into the
// group. When an update changes the owning group, the pad is de-indexed
// from the old group (including bookmark scrubbing for its members) before
// it is indexed into the new one, so a crash in between never leaves the
// pad listed twice; the de-index step is idempotent and a retry converges.
func (s *Service) CreateOrUpdatePad(ctx context.Context, params PadParams) (store.Pad, error) {
	var result store.Pad
	err := withRetry(func() error {
		p, err := normalizePad(params)
		if err != nil {
			return err
		}

		passwordSupplied := params.Password != nil && *params.Password != ""
		if passwordSupplied {
			hash, err := secret.Hash(*params.Password)
			if err != nil {
				return err
			}
			p.Password = store.NewOverride(hash)
		}

		var movedFrom string
		if params.ID != "" {
			var old store.Pad
			if err := s.store.Get(ctx, store.PadKey(params.ID), &old); err != nil {
				if err == store.ErrNotFound {
					return domainError(404, CodeInexistent, "pad does not exist", nil)
				}
				return err
			}
			movedFrom = mergePadUpdate(&p, old, passwordSupplied)
		} else {
			newPadIdentity(&p)
			taken, err := s.store.Exists(ctx, store.PadKey(p.ID))
			if err != nil {
				return err
			}
			if taken {
				return domainError(500, CodeIDCollision, "generated pad id already exists", p.ID)
			}
		}

		if err := s.checkPadReferences(ctx, p); err != nil {
			return err
		}

		if err := s.store.SetRecord(ctx, store.PadKey(p.ID), &p); err != nil {
			return err
		}
		if movedFrom != "" {
			if err := s.idx.indexGroupPads(ctx, false, p.ID, movedFrom); err != nil {
				return err
			}
		}
		if err := s.idx.indexGroupPads(ctx, true, p.ID, p.Group); err != nil {
			return err
		}

		s.indexPadForSearch(ctx, p)
		result = p
		return nil
	})
	return result, err
}

// DeletePad asks the document collaborator to drop the stored content and
// chat history, removes the pad record, then de-indexes the pad from its
// group and from every member's bookmark and watchlist sets. Content goes
// first: if the collaborator fails, the pad record and the group's pads
// list are still intact, so no dangling reference is left behind and the
// deletion can simply be retried.
func (s *Service) DeletePad(ctx context.Context, id string) error {
	var p store.Pad
	if err := s.store.Get(ctx, store.PadKey(id), &p); err != nil {
		if err == store.ErrNotFound {
			return domainError(404, CodeInexistent, "pad does not exist", nil)
		}
		return err
	}

	if s.content != nil {
		if err := s.content.RemoveContent(ctx, id); err != nil {
			return err
		}
		if err := s.content.RemoveChatHistory(ctx, id); err != nil {
			return err
		}
	}

	if err := s.store.Remove(ctx, store.PadKey(id), nil); err != nil && err != store.ErrNotFound {
		return err
	}
	if err := s.idx.indexGroupPads(ctx, false, p.ID, p.Group); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeletePad(id)
	}
	return nil
}

// ReindexSearch pushes every stored pad into the search backend, used at
// startup so the index catches up with writes made while it was down.
func (s *Service) ReindexSearch(ctx context.Context) error {
	if s.search == nil {
		return nil
	}
	keys, err := s.store.FindKeysByPrefix(ctx, store.PadPrefix)
	if err != nil {
		return err
	}
	raw, err := s.store.GetKeys(ctx, keys)
	if err != nil {
		return err
	}
	records := make([]search.PadRecord, 0, len(raw))
	for key, data := range raw {
		var p store.Pad
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		visibility := ""
		if v, ok := p.Visibility.Get(); ok {
			visibility = string(v)
		}
		records = append(records, search.PadRecord{
			ID:         p.ID,
			Name:       p.Name,
			GroupID:    p.Group,
			Visibility: visibility,
		})
	}
	s.search.ReindexAll(records)
	return nil
}

func (s *Service) indexPadForSearch(ctx context.Context, p store.Pad) {
	if s.search == nil {
		return
	}
	visibility := ""
	if v, ok := p.Visibility.Get(); ok {
		visibility = string(v)
	}
	s.search.IndexPad(search.PadRecord{
		ID:         p.ID,
		Name:       p.Name,
		GroupID:    p.Group,
		Visibility: visibility,
	})
}
