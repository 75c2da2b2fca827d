package providers

import (
	"context"

	"github.com/jrsteele09/did-storefront/sessions"
)

const AnonymousName = "anonymous"

// Anonymous always succeeds with a zero-privilege identity and no tokens.
type Anonymous struct{}

var _ Provider = Anonymous{}

func (Anonymous) Name() string                { return AnonymousName }
func (Anonymous) Kind() sessions.ProviderKind { return sessions.ProviderAnonymous }

func (Anonymous) Authorize(_ context.Context, creds Credentials) (*Identity, error) {
	return &Identity{
		User:         sessions.User{ID: creds.AnonymousID},
		Provider:     sessions.ProviderAnonymous,
		ProviderName: AnonymousName,
	}, nil
}
