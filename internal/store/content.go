package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Document is the stored content of a pad, maintained by the editing
// subsystem. This core only needs enough of it to cascade removals and to
// let the watcher detect recent changes.
type Document struct {
	Text    string   `json:"text"`
	Authors []string `json:"authors"`
	MTime   int64    `json:"mtime"`
}

// DocStore is the document-content collaborator: pad text and chat history
// under the doc: namespace, removed as a side effect of pad deletion.
type DocStore struct {
	s *Store
}

func NewDocStore(s *Store) *DocStore {
	return &DocStore{s: s}
}

func docKey(padID string) string      { return DocPrefix + padID }
func chatPrefix(padID string) string  { return DocPrefix + padID + ":chat:" }
func chatHeadKey(padID string) string { return DocPrefix + padID + ":chathead" }

// SetText stores the pad text, recording the author and modification time
// for digest notifications.
func (d *DocStore) SetText(ctx context.Context, padID, text, author string) error {
	doc := Document{MTime: time.Now().UnixMilli()}
	if err := d.s.Get(ctx, docKey(padID), &doc); err != nil && err != ErrNotFound {
		return err
	}
	doc.Text = text
	doc.MTime = time.Now().UnixMilli()
	if author != "" && !contains(doc.Authors, author) {
		doc.Authors = append(doc.Authors, author)
	}
	return d.s.Set(ctx, docKey(padID), doc)
}

// Get returns the stored document for a pad, ErrNotFound when it has none.
func (d *DocStore) Get(ctx context.Context, padID string) (Document, error) {
	var doc Document
	err := d.s.Get(ctx, docKey(padID), &doc)
	return doc, err
}

// AppendChat stores one chat message under the next sequence number.
func (d *DocStore) AppendChat(ctx context.Context, padID, message string) error {
	seq, err := d.s.client.Incr(ctx, chatHeadKey(padID)).Result()
	if err != nil {
		return fmt.Errorf("chat head %s: %w", padID, err)
	}
	return d.s.Set(ctx, chatPrefix(padID)+strconv.FormatInt(seq, 10), message)
}

// RemoveContent deletes the pad's document record.
func (d *DocStore) RemoveContent(ctx context.Context, padID string) error {
	return d.s.Delete(ctx, docKey(padID))
}

// RemoveChatHistory deletes every chat message of the pad plus the sequence
// counter.
func (d *DocStore) RemoveChatHistory(ctx context.Context, padID string) error {
	keys, err := d.s.FindKeysByPrefix(ctx, chatPrefix(padID))
	if err != nil {
		return err
	}
	keys = append(keys, chatHeadKey(padID))
	return d.s.Delete(ctx, keys...)
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
