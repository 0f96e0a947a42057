package auth

import "time"

// ClaimDeletePatient guards patient deletion. No account receives it at
// registration; it is granted through seed data only.
const ClaimDeletePatient = "DeletePatient"

// Identity represents a registered account. Email is the natural key and the
// token subject. Claims are fixed at creation; tokens embed a snapshot of them
// at issuance time.
type Identity struct {
	ID             string            `json:"id"`
	Email          string            `json:"email"`
	PasswordHash   string            `json:"-"`
	EmailConfirmed bool              `json:"email_confirmed"`
	FailedLogins   int               `json:"-"`
	LockoutUntil   *time.Time        `json:"-"`
	Claims         map[string]string `json:"claims,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Locked reports whether the identity is locked out at the given instant.
func (i *Identity) Locked(now time.Time) bool {
	return i.LockoutUntil != nil && now.Before(*i.LockoutUntil)
}
