package authflowrepo

import (
	"sync"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]AuthFlowState
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]AuthFlowState),
	}
}

func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" || authState == nil {
		return errors.Wrapf(errors.ErrInvalidState, "[authflowrepo.Upsert] state and authState are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = *authState
	return nil
}

// Get returns a copy of the stored state
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, ok := r.states[state]
	if !ok {
		return nil, errors.ErrInvalidState
	}
	return &authState, nil
}

func (r *InMemoryRepo) Delete(state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) DeleteOlderThan(cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for state, authState := range r.states {
		if authState.CreatedAt.Before(cutoff) {
			delete(r.states, state)
		}
	}
	return nil
}
