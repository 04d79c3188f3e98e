package search

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"padhub/api/internal/store"
)

func setupScanService(t *testing.T) (*Service, *store.Store) {
	m := miniredis.RunT(t)
	kv := store.NewWithClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	t.Cleanup(func() { kv.Close() })
	return NewService(nil, NewStoreScan(kv)), kv
}

func seedPads(t *testing.T, kv *store.Store) {
	t.Helper()
	ctx := context.Background()
	pads := []store.Pad{
		{ID: "p1", Name: "Sprint notes", Group: "g1", Visibility: store.NewOverride(store.VisibilityPublic)},
		{ID: "p2", Name: "Sprint retro", Group: "g1"},
		{ID: "p3", Name: "Holiday plan", Group: "g2"},
		{ID: "p4", Name: "Sprint drafts", Group: "g1", Visibility: store.NewOverride(store.VisibilityRestricted)},
	}
	for _, p := range pads {
		if err := kv.Set(ctx, store.PadKey(p.ID), p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanFallbackMatchesNames(t *testing.T) {
	svc, kv := setupScanService(t)
	seedPads(t, kv)

	resp := svc.Search(Query{Text: "sprint"})
	if resp.Total != 3 {
		t.Fatalf("expected 3 hits, got %d", resp.Total)
	}
	for _, r := range resp.Results {
		if r.GroupID != "g1" {
			t.Errorf("unexpected hit %+v", r)
		}
	}
}

func TestScanFallbackPublicOnly(t *testing.T) {
	svc, kv := setupScanService(t)
	seedPads(t, kv)

	// Public search returns explicit public pads and inherit pads; only an
	// explicit non-public override hides a pad.
	resp := svc.Search(Query{Text: "sprint", PublicOnly: true})
	if resp.Total != 2 {
		t.Fatalf("expected the public and the inherit pad, got %+v", resp.Results)
	}
	for _, r := range resp.Results {
		if r.ID == "p4" {
			t.Errorf("restricted override must stay hidden, got %+v", resp.Results)
		}
	}
}

func TestScanFallbackPaging(t *testing.T) {
	svc, kv := setupScanService(t)
	seedPads(t, kv)

	resp := svc.Search(Query{Text: "sprint", Limit: 1})
	if resp.Total != 3 || len(resp.Results) != 1 {
		t.Errorf("limit must cap results but keep total, got total=%d len=%d", resp.Total, len(resp.Results))
	}

	resp = svc.Search(Query{Text: "sprint", Offset: 5})
	if resp.Total != 3 || len(resp.Results) != 0 {
		t.Errorf("offset past end must return empty results, got %+v", resp.Results)
	}
}

func TestSearchNoHitsReturnsEmptySlice(t *testing.T) {
	svc, _ := setupScanService(t)

	resp := svc.Search(Query{Text: "nothing"})
	if resp.Results == nil {
		t.Error("results must be an empty slice, not nil")
	}
	if resp.Total != 0 || resp.Query != "nothing" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestIndexingWithoutMeiliIsNoOp(t *testing.T) {
	svc, _ := setupScanService(t)

	svc.IndexPad(PadRecord{ID: "p1", Name: "notes"})
	svc.DeletePad("p1")
	svc.ReindexAll([]PadRecord{{ID: "p1"}})
}
