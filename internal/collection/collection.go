// Package collection maintains the in-memory, ordered mirror of persisted
// notes. It is the single source of truth read by the API layer; every
// mutation goes through the repository first and is merged locally only on
// success.
package collection

import (
	"context"
	"sync"

	"github.com/snapnote/snapnote/internal/models"
)

// Repository is the persistence surface the collection depends on.
// *store.Store satisfies it.
type Repository interface {
	List(ctx context.Context) ([]models.Note, error)
	Upsert(ctx context.Context, n models.Note) error
	Remove(ctx context.Context, id string) error
}

// Change kinds reported to the change callback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeCallback is invoked after a successful persisted mutation.
type ChangeCallback func(kind string, note models.Note)

// Collection holds the mirror plus the loading/error flags the UI reads.
type Collection struct {
	repo     Repository
	onChange ChangeCallback

	mu      sync.RWMutex
	items   []models.Note
	loading bool
	lastErr string
}

// New creates a collection over repo. cb may be nil.
func New(repo Repository, cb ChangeCallback) *Collection {
	return &Collection{repo: repo, onChange: cb}
}

// LoadAll is the only bulk-refresh path. On success the entire collection
// is replaced and any previous error cleared. On failure the previous
// collection is retained and the error recorded as a message; a failed
// refresh never discards good data.
func (c *Collection) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	notes, err := c.repo.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.lastErr = "failed to load notes: " + err.Error()
		return err
	}
	c.items = notes
	return nil
}

// Save persists the note, then merges it locally: replace in place when the
// id exists, else prepend (approximating most-recently-updated-first without
// a full resort). On failure the collection is left unchanged.
func (c *Collection) Save(ctx context.Context, n models.Note) error {
	n.Normalize()
	if err := c.repo.Upsert(ctx, n); err != nil {
		return err
	}

	kind := ChangeCreated
	c.mu.Lock()
	if c.merge(n) {
		kind = ChangeUpdated
	}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(kind, n)
	}
	return nil
}

// Delete removes the note from storage, then from the mirror. On failure
// the collection is left unchanged.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if err := c.repo.Remove(ctx, id); err != nil {
		return err
	}

	var removed models.Note
	found := false
	c.mu.Lock()
	for i, n := range c.items {
		if n.ID == id {
			removed = n
			c.items = append(c.items[:i], c.items[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()

	if found && c.onChange != nil {
		c.onChange(ChangeDeleted, removed)
	}
	return nil
}

// UpsertLocal merges the note into the mirror without persisting it.
// Intended for optimistic UI updates only; it is not a durability
// guarantee.
func (c *Collection) UpsertLocal(n models.Note) {
	c.mu.Lock()
	c.merge(n)
	c.mu.Unlock()
}

// merge replaces an existing entry by id or prepends. Caller holds c.mu.
// Reports whether an existing entry was replaced.
func (c *Collection) merge(n models.Note) bool {
	for i := range c.items {
		if c.items[i].ID == n.ID {
			c.items[i] = n
			return true
		}
	}
	c.items = append([]models.Note{n}, c.items...)
	return false
}

// Notes returns a copy of the current collection in order.
func (c *Collection) Notes() []models.Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Note, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the note with the given id from the mirror.
func (c *Collection) Get(id string) (models.Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.items {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

// Loading reports whether a bulk refresh is in flight.
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// LastError returns the message recorded by the last failed refresh, or
// the empty string.
func (c *Collection) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Len returns the number of notes in the mirror.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
