package sessions

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// keyInfo is the HKDF info string used to derive the cookie signing key from NEXTAUTH_SECRET,
// so cookies issued by the previous deployment stay verifiable with the same secret.
const keyInfo = "NextAuth.js Generated Encryption Key"

// CookieCodec signs and verifies the session cookie. The cookie only carries the
// session ID; tokens stay server side in the Repo.
type CookieCodec struct {
	key     []byte
	nowTime func() time.Time
}

// NewCookieCodec derives a 256 bit HMAC key from secret.
func NewCookieCodec(secret string, nowTime func() time.Time) (*CookieCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("[NewCookieCodec] session secret is required")
	}
	if nowTime == nil {
		nowTime = time.Now
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("[NewCookieCodec] derive key: %w", err)
	}
	return &CookieCodec{key: key, nowTime: nowTime}, nil
}

// Encode returns a signed token for sessionID valid until expiresAt
func (c *CookieCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(c.nowTime()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies the cookie value and returns the session ID it carries
func (c *CookieCodec) Decode(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowTime),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify session cookie: %w", err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("verify session cookie: missing session id")
	}
	return claims.ID, nil
}
