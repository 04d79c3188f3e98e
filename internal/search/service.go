package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to a
// store scan. Indexing is fire-and-forget: the key-value records stay the
// source of truth and a lost index write only degrades search freshness.
type Service struct {
	meili *Meili
	scan  *StoreScan
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, scan *StoreScan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search tries Meilisearch if healthy, otherwise falls back to scanning.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to scan: %v", err)
	}

	results, total, err := s.scan.Search(q)
	if err != nil {
		log.Printf("search: scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexPad indexes a pad (fire-and-forget to Meilisearch).
func (s *Service) IndexPad(pad PadRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPad(pad); err != nil {
			log.Printf("search: index pad %s: %v", pad.ID, err)
		}
	}()
}

// DeletePad removes a pad from the search index (fire-and-forget).
func (s *Service) DeletePad(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeletePad(id); err != nil {
			log.Printf("search: delete pad %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes all pads into Meilisearch, used at startup when the
// index may be stale.
func (s *Service) ReindexAll(pads []PadRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexPads(pads); err != nil {
		log.Printf("search: reindex pads: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
