package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"caredesk.io/internal/ids"
)

// TokenClaims is the payload carried by every access token. UserClaims is the
// identity's claim set snapshot taken at issuance; it is not re-fetched per
// request, so changes only become visible once the token expires.
type TokenClaims struct {
	UserClaims map[string]string `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// HasClaim reports whether the named permission claim is present. Only
// presence matters; the value is ignored.
func (c *TokenClaims) HasClaim(name string) bool {
	_, ok := c.UserClaims[name]
	return ok
}

// Tokens issues and verifies signed access tokens. The secret is loaded once
// at startup and injected here; there is no runtime rotation.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokensOption configures Tokens.
type TokensOption func(*Tokens)

// WithClock overrides the time source. Useful for tests.
func WithClock(fn func() time.Time) TokensOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens constructs the issuer/verifier pair.
func NewTokens(secret, issuer string, ttl time.Duration, opts ...TokensOption) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be greater than zero")
	}
	t := &Tokens{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs an HS256 token for the given subject carrying the claim set.
// The caller must have verified credentials already; issuance itself performs
// no checks and leaves no record.
func (t *Tokens) Issue(subject string, claims map[string]string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}

	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	tc := TokenClaims{
		UserClaims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ids.New(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, structure and expiry. Signature failures surface as
// ErrInvalidToken and are checked before expiry, so a forged token is never
// reported as merely expired. Expired-but-genuine tokens surface as
// ErrTokenExpired.
func (t *Tokens) Verify(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
