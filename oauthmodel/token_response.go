package oauthmodel

// TokenResponse is the identity provider's token endpoint response (RFC 6749 §5.1).
// Keycloak and Google both answer the authorization_code and refresh_token grants with it.
type TokenResponse struct {
	// AccessToken is sent to RedReport as "Authorization: Bearer <access_token>".
	AccessToken string `json:"access_token"`

	// IdToken is the OpenID Connect ID token; only present when "openid" scope was requested.
	IdToken string `json:"id_token,omitempty"`

	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds, relative to the time of the request.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken may be rotated on every refresh; Keycloak invalidates the previous one.
	RefreshToken string `json:"refresh_token,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the token endpoint error body (RFC 6749 §5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
