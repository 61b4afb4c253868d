// Package docstore exposes the remote document database as a small set of
// collection-scoped operations: point reads and writes, filtered ordered
// queries with cursor pagination, and change subscriptions. Two
// implementations exist, one backed by postgres and one fully in memory,
// so every consumer takes a Store handle instead of a global client.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for a missing document.
var ErrNotFound = errors.New("document not found")

// Document is a raw record as stored: a string key plus a JSON-shaped body.
// Data values are canonical JSON types (string, float64, bool, nil, []any,
// map[string]any) regardless of what was written.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the handle every core component operates through.
type Store interface {
	// Get fetches one document. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set writes a document. With merge, fields present in data are laid
	// over the existing body; without it the body is replaced. Creating a
	// document that does not exist yet is valid either way, which makes
	// Set a natural upsert.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error

	// Delete removes a document. Deleting an absent document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns documents matching q, ordered by the sort field then
	// by id. See Query for the pagination contract.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Subscribe emits the full matching document set on every observed
	// change until ctx is canceled. The first snapshot arrives promptly
	// after the call. The channel is closed on cancellation.
	Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error)
}

// FetchError reports a failed read together with the cursor that was being
// attempted, so the caller can resume the same sweep after a retry.
type FetchError struct {
	Cursor string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Cursor == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch failed at cursor %q: %v", e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError marks a failed mutation. Store failure modes are opaque, so
// callers treat these as transient and retriable.
type WriteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s[%s] failed: %v", e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
