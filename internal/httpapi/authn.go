package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"caredesk.io/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

type policyKind int

const (
	policyPublic policyKind = iota
	policyAuthenticated
	policyHasClaim
)

// Policy is the authorization requirement attached to an operation. The set
// is closed: Public, Authenticated, or HasClaim(name).
type Policy struct {
	kind  policyKind
	claim string
}

var (
	// Public accepts every request without inspecting credentials.
	Public = Policy{kind: policyPublic}

	// Authenticated accepts any structurally valid, unexpired, correctly
	// signed token.
	Authenticated = Policy{kind: policyAuthenticated}
)

// HasClaim additionally requires the named permission claim inside the
// token's embedded claim set.
func HasClaim(name string) Policy {
	return Policy{kind: policyHasClaim, claim: name}
}

// authorize gates a request against the policy. It writes the failure
// response itself and reports whether the handler may proceed. Token
// inspection is skipped entirely for public routes. Signature failures are
// reported before expiry, expiry before missing claims; 401 means "who are
// you", 403 means "you may not do this".
func (a *API) authorize(w http.ResponseWriter, r *http.Request, policy Policy) (auth.Principal, bool) {
	if policy.kind == policyPublic {
		return auth.Principal{}, true
	}

	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		unauthorized(w, r, "missing credentials")
		return auth.Principal{}, false
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			unauthorized(w, r, "expired token")
		} else {
			unauthorized(w, r, "invalid token")
		}
		return auth.Principal{}, false
	}

	principal := auth.Principal{Subject: claims.Subject, Claims: claims.UserClaims}
	if policy.kind == policyHasClaim && !principal.HasClaim(policy.claim) {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return auth.Principal{}, false
	}
	return principal, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="caredesk"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
