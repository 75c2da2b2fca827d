package providers

import (
	"context"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
)

const CredentialsName = "credentials"

// Credentials sign-in is registered so the UI can render the form, but no
// username/password store exists yet: every attempt is rejected.
type CredentialsProvider struct{}

var _ Provider = CredentialsProvider{}

func (CredentialsProvider) Name() string                { return CredentialsName }
func (CredentialsProvider) Kind() sessions.ProviderKind { return sessions.ProviderCredentials }

func (CredentialsProvider) Authorize(context.Context, Credentials) (*Identity, error) {
	return nil, errors.ErrInvalidCredentials
}
