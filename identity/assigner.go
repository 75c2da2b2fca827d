// Package identity assigns the anonymous correlation ID used for guest carts.
//
// The assigner has two states, unset and assigned. Ensure moves unset -> assigned once
// and is a no-op afterwards; Reset forces a fresh ID (called before sign-out so the next
// guest on a shared device doesn't inherit the previous user's cart).
package identity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	// StorageKey is where the persisted ID lives in client storage
	StorageKey = "state:persistentId"

	// NoID is the sentinel for an unset identity
	NoID = "no-id"
)

type Assigner struct {
	store Store
	newID func() string
}

type Option func(*Assigner)

// WithIDGenerator replaces uuid.NewString (primarily for testing)
func WithIDGenerator(gen func() string) Option {
	return func(a *Assigner) {
		a.newID = gen
	}
}

func NewAssigner(store Store, options ...Option) *Assigner {
	a := &Assigner{store: store, newID: uuid.NewString}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// ID returns the persisted identity or NoID.
func (a *Assigner) ID() (string, error) {
	raw, ok, err := a.store.Get(StorageKey)
	if err != nil {
		return NoID, fmt.Errorf("[Assigner.ID] read %s: %w", StorageKey, err)
	}
	if !ok || raw == "" {
		return NoID, nil
	}

	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id == "" {
		return NoID, nil
	}
	return id, nil
}

// Ensure assigns a new UUID if none is persisted and returns the current identity.
func (a *Assigner) Ensure() (string, error) {
	id, err := a.ID()
	if err != nil {
		return NoID, err
	}
	if id != NoID {
		return id, nil
	}
	return a.assign()
}

// Reset discards the current identity and assigns a fresh one.
func (a *Assigner) Reset() (string, error) {
	if err := a.persist(NoID); err != nil {
		return NoID, fmt.Errorf("[Assigner.Reset] %w", err)
	}
	return a.assign()
}

func (a *Assigner) assign() (string, error) {
	id := a.newID()
	if err := a.persist(id); err != nil {
		return NoID, fmt.Errorf("[Assigner.assign] %w", err)
	}
	return id, nil
}

func (a *Assigner) persist(id string) error {
	encoded, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return a.store.Set(StorageKey, string(encoded))
}

// Valid reports whether id is an assigned identity rather than the sentinel
func Valid(id string) bool {
	return id != "" && id != NoID
}
