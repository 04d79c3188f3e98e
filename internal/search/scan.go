package search

import (
	"context"
	"encoding/json"
	"strings"

	"padhub/api/internal/store"
)

// StoreScan is the fallback searcher: a substring match over pad names done
// by scanning the pad records in the key-value store. Slow but always
// available, used when Meilisearch is down or not configured.
type StoreScan struct {
	kv *store.Store
}

func NewStoreScan(kv *store.Store) *StoreScan {
	return &StoreScan{kv: kv}
}

func (s *StoreScan) Healthy() bool { return true }

func (s *StoreScan) Search(q Query) ([]Result, int, error) {
	ctx := context.Background()
	keys, err := s.kv.FindKeysByPrefix(ctx, store.PadPrefix)
	if err != nil {
		return nil, 0, err
	}
	raw, err := s.kv.GetKeys(ctx, keys)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(q.Text)
	var results []Result
	for _, data := range raw {
		var p store.Pad
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		visibility := ""
		if v, ok := p.Visibility.Get(); ok {
			visibility = string(v)
		}
		// Inherit-visibility pads stay findable in public search; only an
		// explicit non-public override hides them.
		if q.PublicOnly && visibility != "" && visibility != string(store.VisibilityPublic) {
			continue
		}
		results = append(results, Result{
			ID:         p.ID,
			Name:       p.Name,
			GroupID:    p.Group,
			Visibility: visibility,
		})
	}

	total := len(results)
	if q.Offset > 0 {
		if q.Offset >= total {
			results = nil
		} else {
			results = results[q.Offset:]
		}
	}
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}
