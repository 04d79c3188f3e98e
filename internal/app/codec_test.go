package app

import (
	"errors"
	"strings"
	"testing"

	"padhub/api/internal/store"
)

func TestNormalizeGroupDefaults(t *testing.T) {
	g, err := normalizeGroup(GroupParams{Name: "team", Admin: "u1"})
	if err != nil {
		t.Fatalf("normalizeGroup failed: %v", err)
	}
	if g.Visibility != store.VisibilityRestricted {
		t.Errorf("default visibility = %q", g.Visibility)
	}
	if len(g.Admins) != 1 || g.Admins[0] != "u1" {
		t.Errorf("admins = %v", g.Admins)
	}
	if g.Pads == nil || len(g.Pads) != 0 {
		t.Errorf("pads must start empty, got %v", g.Pads)
	}
}

func TestNormalizeGroupRejectsMissingFields(t *testing.T) {
	if _, err := normalizeGroup(GroupParams{Admin: "u1"}); err == nil {
		t.Error("missing name must be rejected")
	}
	if _, err := normalizeGroup(GroupParams{Name: "team"}); err == nil {
		t.Error("missing admin must be rejected on creation")
	}

	_, err := normalizeGroup(GroupParams{})
	var de *DomainError
	if !errors.As(err, &de) || de.Code != CodeValidation || de.Status != 400 {
		t.Errorf("expected a 400 VALIDATION error, got %v", err)
	}
}

func TestNormalizeGroupAdminWinsOverlap(t *testing.T) {
	g, err := normalizeGroup(GroupParams{
		Name:   "team",
		Admin:  "u1",
		Admins: []string{"u2", "u1"},
		Users:  []string{"u2", "u3", "u3"},
	})
	if err != nil {
		t.Fatalf("normalizeGroup failed: %v", err)
	}
	if len(g.Admins) != 2 {
		t.Errorf("admins = %v", g.Admins)
	}
	if len(g.Users) != 1 || g.Users[0] != "u3" {
		t.Errorf("an id holding admin rights must be stripped from users, got %v", g.Users)
	}
}

func TestNormalizeGroupUnknownVisibility(t *testing.T) {
	g, err := normalizeGroup(GroupParams{Name: "team", Admin: "u1", Visibility: "hidden"})
	if err != nil {
		t.Fatalf("normalizeGroup failed: %v", err)
	}
	if g.Visibility != store.VisibilityRestricted {
		t.Errorf("unknown tier must fall back to restricted, got %q", g.Visibility)
	}
}

func TestMergeGroupUpdateStickyFields(t *testing.T) {
	old := store.Group{
		ID:         "g1",
		Pads:       []string{"p1"},
		CTime:      42,
		Version:    3,
		Visibility: store.VisibilityPrivate,
		Password:   "$2stored",
	}
	g, err := normalizeGroup(GroupParams{ID: "g1", Name: "renamed", Admin: "u1", Visibility: "private"})
	if err != nil {
		t.Fatal(err)
	}

	mergeGroupUpdate(&g, old, false)
	if g.ID != "g1" || g.CTime != 42 || g.Version != 3 {
		t.Errorf("identity fields not carried: %+v", g)
	}
	if len(g.Pads) != 1 || g.Pads[0] != "p1" {
		t.Errorf("pads list must be preserved on update, got %v", g.Pads)
	}
	if g.Password != "$2stored" {
		t.Errorf("private group password must survive when none supplied, got %q", g.Password)
	}

	g.Password = "$2replacement"
	mergeGroupUpdate(&g, old, true)
	if g.Password != "$2replacement" {
		t.Error("a supplied password must replace the stored one")
	}
}

func TestNormalizePadUserListNeedsExplicitRestricted(t *testing.T) {
	p, err := normalizePad(PadParams{Name: "notes", Group: "g1", Users: []string{"u1"}})
	if err != nil {
		t.Fatal(err)
	}
	if p.Visibility.IsSet() {
		t.Error("no visibility given must mean inherit")
	}
	if len(p.Users) != 0 {
		t.Errorf("user list without explicit restricted must be dropped, got %v", p.Users)
	}

	p, err = normalizePad(PadParams{Name: "notes", Group: "g1", Visibility: "restricted", Users: []string{"u1", "u1"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Users) != 1 {
		t.Errorf("explicit restricted keeps the deduplicated list, got %v", p.Users)
	}
}

func TestNormalizePadOverrides(t *testing.T) {
	ro := true
	p, err := normalizePad(PadParams{Name: "notes", Group: "g1", Visibility: "public", Readonly: &ro})
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := p.Visibility.Get(); !ok || v != store.VisibilityPublic {
		t.Errorf("visibility override = %v %v", v, ok)
	}
	if r, ok := p.Readonly.Get(); !ok || !r {
		t.Errorf("readonly override = %v %v", r, ok)
	}
	if p.Password.IsSet() {
		t.Error("password must stay inherited when not supplied")
	}
}

func TestMergePadUpdateReportsMove(t *testing.T) {
	old := store.Pad{ID: "p1", Group: "g1", CTime: 42, Version: 2}

	p, err := normalizePad(PadParams{ID: "p1", Name: "notes", Group: "g1"})
	if err != nil {
		t.Fatal(err)
	}
	if movedFrom := mergePadUpdate(&p, old, false); movedFrom != "" {
		t.Errorf("same group must not report a move, got %q", movedFrom)
	}

	p, err = normalizePad(PadParams{ID: "p1", Name: "notes", Group: "g2"})
	if err != nil {
		t.Fatal(err)
	}
	movedFrom := mergePadUpdate(&p, old, false)
	if movedFrom != "g1" {
		t.Errorf("expected move from g1, got %q", movedFrom)
	}
	if p.ID != "p1" || p.CTime != 42 || p.Version != 2 {
		t.Errorf("identity fields not carried: %+v", p)
	}
}

func TestNewGroupIdentity(t *testing.T) {
	g := store.Group{Name: "My Team"}
	newGroupIdentity(&g)
	if !strings.HasPrefix(g.ID, "my-team-") {
		t.Errorf("id = %q", g.ID)
	}
	if g.CTime == 0 {
		t.Error("ctime must be assigned")
	}
}

func TestSetHelpers(t *testing.T) {
	if got := subtract([]string{"a", "b", "c"}, []string{"b"}); len(got) != 2 {
		t.Errorf("subtract = %v", got)
	}
	if got := intersect([]string{"a", "b"}, []string{"b", "c"}); len(got) != 1 || got[0] != "b" {
		t.Errorf("intersect = %v", got)
	}
	if got := union([]string{"a", "b"}, []string{"b", "c"}); len(got) != 3 {
		t.Errorf("union = %v", got)
	}
	if got := dedup([]string{"a", "", "a"}); len(got) != 1 {
		t.Errorf("dedup must drop empties and duplicates, got %v", got)
	}
	if got := removeString([]string{"a", "b", "a"}, "a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("removeString = %v", got)
	}
}
