// Package watcher builds and mails the periodic digest of recent changes
// in watched pads and groups.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"padhub/api/internal/email"
	"padhub/api/internal/store"
)

// Change is one pad whose document changed within the digest window.
type Change struct {
	PadID   string
	PadName string
	Authors []string
	Excerpt string
}

// Service assembles per-user digests. Mail is skipped entirely when the
// mailer is not configured.
type Service struct {
	kv      *store.Store
	docs    *store.DocStore
	mail    *email.Service
	rootURL string
	window  time.Duration
}

func New(kv *store.Store, docs *store.DocStore, mail *email.Service, rootURL string, window time.Duration) *Service {
	return &Service{
		kv:      kv,
		docs:    docs,
		mail:    mail,
		rootURL: rootURL,
		window:  window,
	}
}

// Run sends one digest round: for every user with a non-empty watchlist,
// collect the watched pads (directly watched plus pads of watched groups),
// keep those changed within the window, and mail the digest.
func (s *Service) Run(ctx context.Context) error {
	if s.mail == nil || !s.mail.IsConfigured() {
		return nil
	}

	userKeys, err := s.kv.FindKeysByPrefix(ctx, store.UserPrefix)
	if err != nil {
		return err
	}
	raw, err := s.kv.GetKeys(ctx, userKeys)
	if err != nil {
		return err
	}

	since := time.Now().Add(-s.window).UnixMilli()
	for key, data := range raw {
		var u store.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if u.Email == "" {
			continue
		}
		if len(u.Watchlist.Pads) == 0 && len(u.Watchlist.Groups) == 0 {
			continue
		}

		padIDs, err := s.watchedPadIDs(ctx, u)
		if err != nil {
			return err
		}
		changes, err := s.changesSince(ctx, padIDs, since)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			continue
		}

		if err := s.mail.SendDigestEmail(u.Email, s.digestEntries(changes)); err != nil {
			log.Printf("watcher: digest mail to %s: %v", u.Email, err)
		}
	}
	return nil
}

// watchedPadIDs is the union of directly watched pads and the pads of
// watched groups.
func (s *Service) watchedPadIDs(ctx context.Context, u store.User) ([]string, error) {
	ids := append([]string{}, u.Watchlist.Pads...)
	if len(u.Watchlist.Groups) == 0 {
		return dedup(ids), nil
	}

	keys := make([]string, len(u.Watchlist.Groups))
	for i, gid := range u.Watchlist.Groups {
		keys[i] = store.GroupKey(gid)
	}
	raw, err := s.kv.GetKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	for key, data := range raw {
		var g store.Group
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		ids = append(ids, g.Pads...)
	}
	return dedup(ids), nil
}

// changesSince loads the pad records and document metadata, keeping the
// pads whose content changed at or after the given time.
func (s *Service) changesSince(ctx context.Context, padIDs []string, since int64) ([]Change, error) {
	if len(padIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(padIDs))
	for i, pid := range padIDs {
		keys[i] = store.PadKey(pid)
	}
	raw, err := s.kv.GetKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for key, data := range raw {
		var p store.Pad
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		doc, err := s.docs.Get(ctx, p.ID)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if doc.MTime < since {
			continue
		}
		changes = append(changes, Change{
			PadID:   p.ID,
			PadName: p.Name,
			Authors: doc.Authors,
			Excerpt: excerpt(doc.Text),
		})
	}
	return changes, nil
}

func (s *Service) digestEntries(changes []Change) []email.DigestEntry {
	entries := make([]email.DigestEntry, len(changes))
	for i, c := range changes {
		entries[i] = email.DigestEntry{
			PadName: c.PadName,
			PadURL:  PadURL(s.rootURL, c.PadID),
			Authors: strings.Join(c.Authors, " "),
			Excerpt: c.Excerpt,
		}
	}
	return entries
}

// BuildDigest renders the plain-text digest body, one block per changed
// pad.
func BuildDigest(changes []Change, rootURL string) string {
	blocks := make([]string, len(changes))
	for i, c := range changes {
		var b strings.Builder
		fmt.Fprintf(&b, "%s(%s)\n", c.PadName, PadURL(rootURL, c.PadID))
		fmt.Fprintf(&b, "Authors: %s\n\n", strings.Join(c.Authors, " "))
		if c.Excerpt != "" {
			b.WriteString(c.Excerpt)
			b.WriteString("\n")
		}
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n")
}

// PadURL is the public link of a pad.
func PadURL(rootURL, padID string) string {
	return strings.TrimSuffix(rootURL, "/") + "/p/" + padID
}

const excerptLimit = 280

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "…"
}

func dedup(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
