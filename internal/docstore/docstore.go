// Package docstore persists identity documents submitted during registration.
package docstore

import "context"

// Document is one uploaded identity document.
type Document struct {
	Key         string
	Body        []byte
	ContentType string
}

// StoredDocument describes the persisted artifact.
type StoredDocument struct {
	URL  string
	ETag string
}

// Store saves registration documents.
type Store interface {
	Save(ctx context.Context, doc Document) (*StoredDocument, error)
}

// NoopStore discards documents; used when no storage backend is configured.
type NoopStore struct{}

// Save returns an empty artifact without persisting anything.
func (NoopStore) Save(ctx context.Context, doc Document) (*StoredDocument, error) {
	return &StoredDocument{}, nil
}
