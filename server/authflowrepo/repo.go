package authflowrepo

import "time"

// AuthFlowState is what the sign-in redirect must remember until the provider calls back.
type AuthFlowState struct {
	Provider     string
	CodeVerifier string
	Nonce        string
	AnonymousID  string
	ReturnURL    string
	CreatedAt    time.Time
}

// Expired reports whether the flow was started more than ttl before now
func (a *AuthFlowState) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(a.CreatedAt) > ttl
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error

	// DeleteOlderThan drops abandoned flows started before cutoff
	DeleteOlderThan(cutoff time.Time) error
}
