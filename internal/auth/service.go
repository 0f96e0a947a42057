package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"caredesk.io/internal/ids"
)

const (
	// ASP.NET Identity style lockout: five failures lock the account for
	// five minutes. Locked accounts are rejected before the password is read.
	maxFailedLogins = 5
	lockoutDuration = 5 * time.Minute

	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
	maxEmailLen    = 254
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// dummyHash keeps the bcrypt cost of a login against an unknown email
// comparable to a real password check.
var dummyHash, _ = HashPassword("caredesk-placeholder-password")

// Credentials is the outcome of a successful register or login.
type Credentials struct {
	Token     string
	ExpiresAt time.Time
	Subject   string
}

// Service implements the register and login flows on top of an IdentityStore
// and the token issuer.
type Service struct {
	store  IdentityStore
	tokens *Tokens
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source. Useful for lockout tests.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store IdentityStore, tokens *Tokens, opts ...ServiceOption) *Service {
	s := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an identity with an empty claim set and issues its first
// token. Structural validation happens before any storage access.
func (s *Service) Register(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if verr := validateRegistration(email, password); verr != nil {
		return nil, verr
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	identity := &Identity{
		ID:             ids.New(),
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		Claims:         map[string]string{},
	}
	if err := s.store.Create(ctx, identity); err != nil {
		return nil, err
	}
	return s.issue(identity)
}

// Login verifies credentials and issues a token embedding the identity's
// current claim set. Lockout is checked before the password; unknown email
// and wrong password collapse into the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	verr := NewValidationError()
	if email == "" {
		verr.Add("email", "email is required")
	}
	if password == "" {
		verr.Add("password", "password is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()
	if identity.Locked(now) {
		return nil, ErrLockedOut
	}

	if err := VerifyPassword(identity.PasswordHash, password); err != nil {
		if rerr := s.recordFailure(ctx, identity, now); rerr != nil {
			return nil, rerr
		}
		return nil, ErrInvalidCredentials
	}

	if identity.FailedLogins > 0 || identity.LockoutUntil != nil {
		if err := s.store.ResetLoginFailures(ctx, identity.ID); err != nil {
			return nil, err
		}
	}
	return s.issue(identity)
}

func (s *Service) recordFailure(ctx context.Context, identity *Identity, now time.Time) error {
	failures := identity.FailedLogins + 1
	var lockoutUntil *time.Time
	if failures >= maxFailedLogins {
		until := now.Add(lockoutDuration)
		lockoutUntil = &until
		failures = 0
	}
	return s.store.RecordLoginFailure(ctx, identity.ID, failures, lockoutUntil)
}

func (s *Service) issue(identity *Identity) (*Credentials, error) {
	token, expiresAt, err := s.tokens.Issue(identity.Email, identity.Claims)
	if err != nil {
		return nil, err
	}
	return &Credentials{Token: token, ExpiresAt: expiresAt, Subject: identity.Email}, nil
}

func validateRegistration(email, password string) *ValidationError {
	verr := NewValidationError()
	switch {
	case email == "":
		verr.Add("email", "email is required")
	case len(email) > maxEmailLen:
		verr.Add("email", "email is too long")
	case !emailPattern.MatchString(email):
		verr.Add("email", "email format is invalid")
	}
	switch {
	case password == "":
		verr.Add("password", "password is required")
	case len(password) < minPasswordLen:
		verr.Add("password", "password must be at least 8 characters")
	case len(password) > maxPasswordLen:
		verr.Add("password", "password must not exceed 72 characters")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
