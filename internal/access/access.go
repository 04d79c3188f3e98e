// Package access resolves the effective visibility, password and readonly
// state of a pad and answers access questions against them. A pad field set
// to inherit takes the owning group's value at read time; an explicit
// override decouples the pad from later group changes.
package access

import (
	"padhub/api/internal/secret"
	"padhub/api/internal/store"
)

// EffectiveVisibility returns the pad's own tier if overridden, else the
// group's.
func EffectiveVisibility(p store.Pad, g store.Group) store.Visibility {
	return p.Visibility.Or(g.Visibility)
}

// EffectivePassword returns the hash guarding the pad: its own when set,
// the group's otherwise.
func EffectivePassword(p store.Pad, g store.Group) string {
	return p.Password.Or(g.Password)
}

// EffectiveReadonly resolves the pad's readonly flag against the group
// default.
func EffectiveReadonly(p store.Pad, g store.Group) bool {
	return p.Readonly.Or(g.Readonly)
}

// CanReadGroup reports whether uid may read the group. password is the
// caller-supplied plaintext for private groups, ignored otherwise.
func CanReadGroup(g store.Group, uid, password string) bool {
	switch g.Visibility {
	case store.VisibilityPublic:
		return true
	case store.VisibilityPrivate:
		return isMember(g, uid) || secret.Compare(g.Password, password)
	default:
		return isMember(g, uid)
	}
}

// CanReadPad reports whether uid may read the pad, resolving inheritance
// against the owning group. For a restricted pad with its own user list,
// that list plus the group admins is authoritative.
func CanReadPad(p store.Pad, g store.Group, uid, password string) bool {
	switch EffectiveVisibility(p, g) {
	case store.VisibilityPublic:
		return true
	case store.VisibilityPrivate:
		if isMember(g, uid) {
			return true
		}
		return secret.Compare(EffectivePassword(p, g), password)
	default:
		if p.Visibility.IsSet() && len(p.Users) > 0 {
			return containsString(p.Users, uid) || containsString(g.Admins, uid)
		}
		return isMember(g, uid)
	}
}

// CanWritePad reports whether uid may edit the pad: readable and not
// readonly.
func CanWritePad(p store.Pad, g store.Group, uid, password string) bool {
	if EffectiveReadonly(p, g) {
		return containsString(g.Admins, uid)
	}
	return CanReadPad(p, g, uid, password)
}

func isMember(g store.Group, uid string) bool {
	return containsString(g.Admins, uid) || containsString(g.Users, uid)
}

func containsString(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
