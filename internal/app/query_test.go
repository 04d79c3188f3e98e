package app

import (
	"context"
	"testing"

	"padhub/api/internal/store"
)

func TestGetGroupWithPads(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()
	seedUser(t, kv, "ann")

	g := mustCreateGroup(t, s, GroupParams{Name: "team", Admin: "ann"})
	p1 := mustCreatePad(t, s, PadParams{Name: "one", Group: g.ID})
	p2 := mustCreatePad(t, s, PadParams{Name: "two", Group: g.ID})

	loaded, pads, err := s.GetGroupWithPads(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroupWithPads: %v", err)
	}
	if loaded.ID != g.ID {
		t.Errorf("group id = %q", loaded.ID)
	}
	if len(pads) != 2 {
		t.Fatalf("expected 2 pads, got %d", len(pads))
	}
	if pads[p1.ID].Name != "one" || pads[p2.ID].Name != "two" {
		t.Errorf("pads = %+v", pads)
	}

	if _, _, err := s.GetGroupWithPads(ctx, "nope"); errCode(t, err) != CodeInexistent {
		t.Errorf("expected INEXISTENT, got %v", err)
	}
}

func TestGetGroupsForUser(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()
	seedUser(t, kv, "ann")
	seedUser(t, kv, "ben")

	a := mustCreateGroup(t, s, GroupParams{Name: "alpha", Admin: "ann", Users: []string{"ben"}})
	b := mustCreateGroup(t, s, GroupParams{Name: "beta", Admin: "ann"})
	p := mustCreatePad(t, s, PadParams{Name: "notes", Group: a.ID})

	ann := getUser(t, kv, "ann")
	view, err := s.GetGroupsForUser(ctx, ann, false)
	if err != nil {
		t.Fatalf("GetGroupsForUser: %v", err)
	}
	if len(view.Groups) != 2 {
		t.Errorf("groups = %v", view.Groups)
	}
	if view.Pads != nil || view.Users != nil {
		t.Error("extra data must be omitted without withExtra")
	}

	view, err = s.GetGroupsForUser(ctx, ann, true)
	if err != nil {
		t.Fatalf("GetGroupsForUser withExtra: %v", err)
	}
	if _, ok := view.Groups[b.ID]; !ok {
		t.Errorf("missing group %s in %v", b.ID, view.Groups)
	}
	if len(view.Pads) != 1 {
		t.Errorf("pads = %v", view.Pads)
	}
	if _, ok := view.Pads[p.ID]; !ok {
		t.Errorf("missing pad %s", p.ID)
	}
	if len(view.Users) != 2 {
		t.Errorf("roster users = %v", view.Users)
	}
}

func TestBookmarkAndWatchlistQueries(t *testing.T) {
	s, kv := newTestService(t)
	ctx := context.Background()
	seedUser(t, kv, "ann")

	g := mustCreateGroup(t, s, GroupParams{Name: "team", Admin: "ann"})
	p := mustCreatePad(t, s, PadParams{Name: "notes", Group: g.ID})

	ann := getUser(t, kv, "ann")
	ann.Bookmarks = store.Bookmarks{Groups: []string{g.ID}, Pads: []string{p.ID, "gone"}}
	ann.Watchlist = store.Watchlist{Pads: []string{p.ID}}

	groups, err := s.GetBookmarkedGroups(ctx, ann)
	if err != nil || len(groups) != 1 {
		t.Errorf("bookmarked groups = %v, %v", groups, err)
	}
	// A dangling id resolves to nothing instead of failing.
	pads, err := s.GetBookmarkedPads(ctx, ann)
	if err != nil || len(pads) != 1 {
		t.Errorf("bookmarked pads = %v, %v", pads, err)
	}
	watched, err := s.GetWatchedPads(ctx, ann)
	if err != nil || len(watched) != 1 {
		t.Errorf("watched pads = %v, %v", watched, err)
	}
	none, err := s.GetWatchedGroups(ctx, ann)
	if err != nil || len(none) != 0 {
		t.Errorf("watched groups = %v, %v", none, err)
	}
}

func TestGetUser(t *testing.T) {
	s, kv := newTestService(t)
	seedUser(t, kv, "ann")

	u, err := s.GetUser(context.Background(), "ann")
	if err != nil || u.Login != "ann" {
		t.Errorf("GetUser = %+v, %v", u, err)
	}
	if _, err := s.GetUser(context.Background(), "nope"); errCode(t, err) != CodeInexistent {
		t.Errorf("expected INEXISTENT, got %v", err)
	}
}
