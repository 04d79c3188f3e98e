package app

import (
	"time"

	"padhub/api/internal/store"
	"padhub/api/internal/util"
)

// GroupParams is the raw input for creating or updating a group. ID empty
// means creation. Password nil means "not supplied", which on update keeps
// the stored secret of a private group.
type GroupParams struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	Admin                  string   `json:"admin"`
	Admins                 []string `json:"admins"`
	Users                  []string `json:"users"`
	Visibility             string   `json:"visibility"`
	Password               *string  `json:"password"`
	Readonly               bool     `json:"readonly"`
	Tags                   []string `json:"tags"`
	AllowUsersToCreatePads bool     `json:"allowUsersToCreatePads"`
	Archived               bool     `json:"archived"`
}

// PadParams is the raw input for creating or updating a pad. Visibility,
// Password and Readonly left unset inherit from the owning group.
type PadParams struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Users      []string `json:"users"`
	Visibility string   `json:"visibility"`
	Password   *string  `json:"password"`
	Readonly   *bool    `json:"readonly"`
}

// normalizeGroup validates params and assigns defaults for a new group:
// admins is the union of the initial admin and the extra admin list, users
// is deduplicated with admins winning on overlap, visibility falls back to
// restricted when absent or unrecognized.
func normalizeGroup(params GroupParams) (store.Group, error) {
	if params.Name == "" {
		return store.Group{}, validationError("group name is required")
	}
	if params.ID == "" && params.Admin == "" {
		return store.Group{}, validationError("group admin is required")
	}

	admins := dedup(append([]string{params.Admin}, params.Admins...))
	users := subtract(dedup(params.Users), admins)

	visibility, ok := store.ParseVisibility(params.Visibility)
	if !ok {
		visibility = store.VisibilityRestricted
	}

	g := store.Group{
		Name:                   params.Name,
		Description:            params.Description,
		Admins:                 admins,
		Users:                  users,
		Pads:                   []string{},
		Visibility:             visibility,
		Readonly:               params.Readonly,
		Tags:                   dedup(params.Tags),
		AllowUsersToCreatePads: params.AllowUsersToCreatePads,
		Archived:               params.Archived,
	}
	if params.Password != nil {
		g.Password = *params.Password
	}
	return g, nil
}

// mergeGroupUpdate carries immutable and sticky fields from the stored
// record into the normalized one: the pads list, the creation time, the
// write version, and the password of a private group when no replacement
// was supplied.
func mergeGroupUpdate(g *store.Group, old store.Group, passwordSupplied bool) {
	g.ID = old.ID
	g.Pads = old.Pads
	g.CTime = old.CTime
	g.Version = old.Version
	if old.Visibility == store.VisibilityPrivate && !passwordSupplied {
		g.Password = old.Password
	}
}

// newGroupIdentity assigns the generated id and creation time of a fresh
// group.
func newGroupIdentity(g *store.Group) {
	g.ID = util.NewSlugID(g.Name)
	g.CTime = time.Now().UnixMilli()
}

// normalizePad validates params and assigns defaults for a pad. The users
// list is only meaningful for an explicit restricted visibility; any other
// tier drops it.
func normalizePad(params PadParams) (store.Pad, error) {
	if params.Name == "" {
		return store.Pad{}, validationError("pad name is required")
	}
	if params.Group == "" {
		return store.Pad{}, validationError("pad group is required")
	}

	p := store.Pad{
		Name:  params.Name,
		Group: params.Group,
		Users: []string{},
	}
	if visibility, ok := store.ParseVisibility(params.Visibility); ok {
		p.Visibility = store.NewOverride(visibility)
		if visibility == store.VisibilityRestricted {
			p.Users = dedup(params.Users)
		}
	}
	if params.Password != nil {
		p.Password = store.NewOverride(*params.Password)
	}
	if params.Readonly != nil {
		p.Readonly = store.NewOverride(*params.Readonly)
	}
	return p, nil
}

// mergePadUpdate carries stored fields into the normalized pad and returns
// the previous group id when the pad is moving to another group.
func mergePadUpdate(p *store.Pad, old store.Pad, passwordSupplied bool) (movedFrom string) {
	p.ID = old.ID
	p.CTime = old.CTime
	p.Version = old.Version
	if v, ok := old.Visibility.Get(); ok && v == store.VisibilityPrivate && !passwordSupplied {
		p.Password = old.Password
	}
	if old.Group != p.Group {
		return old.Group
	}
	return ""
}

func newPadIdentity(p *store.Pad) {
	p.ID = util.NewSlugID(p.Name)
	p.CTime = time.Now().UnixMilli()
}

func dedup(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func subtract(list, remove []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if !containsString(remove, v) {
			out = append(out, v)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, v := range a {
		if containsString(b, v) {
			out = append(out, v)
		}
	}
	return out
}

func union(a, b []string) []string {
	return dedup(append(append([]string{}, a...), b...))
}

func containsString(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func removeString(list []string, item string) []string {
	out := list[:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}
