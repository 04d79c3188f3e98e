package store

import (
	"bytes"
	"encoding/json"
)

// Key prefixes for the flat key-value namespace. Document content and chat
// history live under DocPrefix so they never collide with pad records.
const (
	GroupPrefix = "group:"
	PadPrefix   = "pad:"
	UserPrefix  = "user:"
	DocPrefix   = "doc:"
)

func GroupKey(id string) string { return GroupPrefix + id }
func PadKey(id string) string   { return PadPrefix + id }
func UserKey(id string) string  { return UserPrefix + id }

// Visibility is the access tier of a group or pad.
type Visibility string

const (
	VisibilityRestricted Visibility = "restricted"
	VisibilityPrivate    Visibility = "private"
	VisibilityPublic     Visibility = "public"
)

// ParseVisibility reports whether s names a known tier.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(s) {
	case VisibilityRestricted, VisibilityPrivate, VisibilityPublic:
		return Visibility(s), true
	default:
		return "", false
	}
}

// Group is a named collection of pads with a shared admin/member roster.
// The Pads list is authoritative: a pad record's Group field must point back
// to the group that lists it.
type Group struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	Admins                 []string   `json:"admins"`
	Users                  []string   `json:"users"`
	Pads                   []string   `json:"pads"`
	Visibility             Visibility `json:"visibility"`
	Password               string     `json:"password,omitempty"`
	Readonly               bool       `json:"readonly"`
	Tags                   []string   `json:"tags"`
	AllowUsersToCreatePads bool       `json:"allowUsersToCreatePads"`
	Archived               bool       `json:"archived"`
	CTime                  int64      `json:"ctime"`
	Version                int64      `json:"version"`
}

func (g *Group) Ver() int64 { return g.Version }
func (g *Group) Bump()      { g.Version++ }

// Pad is a single collaborative document owned by exactly one group.
// Visibility, Password and Readonly inherit from the owning group unless
// overridden; the zero Override means "inherit".
type Pad struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Group      string               `json:"group"`
	Users      []string             `json:"users"`
	Visibility Override[Visibility] `json:"visibility"`
	Password   Override[string]     `json:"password"`
	Readonly   Override[bool]       `json:"readonly"`
	CTime      int64                `json:"ctime"`
	Version    int64                `json:"version"`
}

func (p *Pad) Ver() int64 { return p.Version }
func (p *Pad) Bump()      { p.Version++ }

// Bookmarks are the per-user pinned group and pad id sets.
type Bookmarks struct {
	Groups []string `json:"groups"`
	Pads   []string `json:"pads"`
}

// Watchlist holds the per-user change subscription sets.
type Watchlist struct {
	Groups []string `json:"groups"`
	Pads   []string `json:"pads"`
}

// User is owned by the account subsystem; this core reads and writes only its
// denormalized relationship sets (Groups, Bookmarks, Watchlist).
type User struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	Groups    []string  `json:"groups"`
	Bookmarks Bookmarks `json:"bookmarks"`
	Watchlist Watchlist `json:"watchlist"`
	Version   int64     `json:"version"`
}

func (u *User) Ver() int64 { return u.Version }
func (u *User) Bump()      { u.Version++ }

// Versioned is implemented by records carrying an optimistic write version.
type Versioned interface {
	Ver() int64
	Bump()
}

// Override is an optional per-pad override of a group default. The zero value
// inherits; it marshals as JSON null so stored records stay readable.
type Override[T any] struct {
	value T
	valid bool
}

// NewOverride returns an Override fixing v instead of the inherited default.
func NewOverride[T any](v T) Override[T] {
	return Override[T]{value: v, valid: true}
}

// Get returns the override value and whether one is set.
func (o Override[T]) Get() (T, bool) { return o.value, o.valid }

// Or returns the override value if set, the fallback otherwise.
func (o Override[T]) Or(fallback T) T {
	if o.valid {
		return o.value
	}
	return fallback
}

// IsSet reports whether the override decouples the field from the group.
func (o Override[T]) IsSet() bool { return o.valid }

func (o Override[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Override[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Override[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Override[T]{value: v, valid: true}
	return nil
}
