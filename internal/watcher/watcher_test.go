package watcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"padhub/api/internal/store"
)

func setupWatcher(t *testing.T) (*Service, *store.Store, *store.DocStore) {
	m := miniredis.RunT(t)
	kv := store.NewWithClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	t.Cleanup(func() { kv.Close() })
	docs := store.NewDocStore(kv)
	return New(kv, docs, nil, "http://localhost", time.Hour), kv, docs
}

func TestWatchedPadIDs(t *testing.T) {
	w, kv, _ := setupWatcher(t)
	ctx := context.Background()

	seed := map[string]any{
		store.GroupKey("g1"): store.Group{ID: "g1", Pads: []string{"p1", "p2"}},
		store.PadKey("p1"):   store.Pad{ID: "p1", Group: "g1"},
		store.PadKey("p2"):   store.Pad{ID: "p2", Group: "g1"},
		store.PadKey("p3"):   store.Pad{ID: "p3", Group: "g2"},
	}
	if err := kv.SetKeys(ctx, seed); err != nil {
		t.Fatal(err)
	}

	u := store.User{
		ID:        "u1",
		Watchlist: store.Watchlist{Groups: []string{"g1"}, Pads: []string{"p2", "p3"}},
	}
	ids, err := w.watchedPadIDs(ctx, u)
	if err != nil {
		t.Fatalf("watchedPadIDs failed: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("expected p1 p2 p3 deduplicated, got %v", ids)
	}
}

func TestChangesSinceFiltersByMTime(t *testing.T) {
	w, kv, docs := setupWatcher(t)
	ctx := context.Background()

	_ = kv.Set(ctx, store.PadKey("p1"), store.Pad{ID: "p1", Name: "fresh"})
	_ = kv.Set(ctx, store.PadKey("p2"), store.Pad{ID: "p2", Name: "stale"})
	_ = kv.Set(ctx, store.PadKey("p3"), store.Pad{ID: "p3", Name: "empty"})

	if err := docs.SetText(ctx, "p1", "recent edit", "ann"); err != nil {
		t.Fatal(err)
	}
	// A document last touched before the window.
	old := store.Document{Text: "old", Authors: []string{"ben"}, MTime: time.Now().Add(-2 * time.Hour).UnixMilli()}
	_ = kv.Set(ctx, store.DocPrefix+"p2", old)

	since := time.Now().Add(-time.Hour).UnixMilli()
	changes, err := w.changesSince(ctx, []string{"p1", "p2", "p3"}, since)
	if err != nil {
		t.Fatalf("changesSince failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected only the fresh pad, got %v", changes)
	}
	c := changes[0]
	if c.PadID != "p1" || c.PadName != "fresh" || c.Excerpt != "recent edit" {
		t.Errorf("unexpected change %+v", c)
	}
	if len(c.Authors) != 1 || c.Authors[0] != "ann" {
		t.Errorf("unexpected authors %v", c.Authors)
	}
}

func TestRunSkipsWhenMailUnconfigured(t *testing.T) {
	w, _, _ := setupWatcher(t)
	if err := w.Run(context.Background()); err != nil {
		t.Errorf("unconfigured mailer must be a no-op, got %v", err)
	}
}

func TestBuildDigest(t *testing.T) {
	text := BuildDigest([]Change{
		{PadID: "p1", PadName: "Notes", Authors: []string{"ann", "ben"}, Excerpt: "hello"},
		{PadID: "p2", PadName: "Plan", Authors: []string{"ann"}},
	}, "http://localhost/")

	for _, want := range []string{
		"Notes(http://localhost/p/p1)",
		"Authors: ann ben",
		"hello",
		"Plan(http://localhost/p/p2)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q in:\n%s", want, text)
		}
	}
}

func TestExcerptTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := excerpt(long)
	runes := []rune(got)
	if len(runes) != excerptLimit+1 {
		t.Errorf("expected %d runes plus ellipsis, got %d", excerptLimit, len(runes))
	}
	if runes[len(runes)-1] != '…' {
		t.Error("expected trailing ellipsis")
	}

	if got := excerpt("  short  "); got != "short" {
		t.Errorf("short text should be trimmed only, got %q", got)
	}
}
