package auth

// Principal is the authenticated caller derived from a verified token.
type Principal struct {
	Subject string
	Claims  map[string]string
}

// HasClaim reports whether the principal carries the named permission claim.
func (p Principal) HasClaim(name string) bool {
	_, ok := p.Claims[name]
	return ok
}
