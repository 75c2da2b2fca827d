package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// RefreshTokenGrant exchanges a refresh token for a fresh token set.
	RefreshTokenGrant GrantType = "refresh_token"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256: code_challenge = BASE64URL(SHA256(code_verifier))
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// Standard OIDC scopes requested by the OAuth providers
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeOfflineAccess = "offline_access"
)
