package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PGStore implements IdentityStore using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ IdentityStore = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, id *Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		insert into identities(id, email, password_hash, email_confirmed)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, id.ID, strings.ToLower(id.Email), id.PasswordHash, id.EmailConfirmed).
		Scan(&id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}

	for name, value := range id.Claims {
		if _, err := tx.ExecContext(ctx, `
			insert into identity_claims(identity_id, claim_name, claim_value)
			values ($1, $2, $3)
		`, id.ID, name, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, email_confirmed, failed_logins, lockout_until, created_at, updated_at
		from identities where email = $1
	`, strings.ToLower(email))

	var (
		id      Identity
		lockout sql.NullTime
	)
	if err := row.Scan(&id.ID, &id.Email, &id.PasswordHash, &id.EmailConfirmed,
		&id.FailedLogins, &lockout, &id.CreatedAt, &id.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lockout.Valid {
		t := lockout.Time
		id.LockoutUntil = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		select claim_name, claim_value from identity_claims where identity_id = $1
	`, id.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	id.Claims = make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		id.Claims[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *PGStore) RecordLoginFailure(ctx context.Context, identityID string, failures int, lockoutUntil *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set failed_logins = $2, lockout_until = $3, updated_at = now()
		where id = $1
	`, identityID, failures, lockoutUntil)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) ResetLoginFailures(ctx context.Context, identityID string) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set failed_logins = 0, lockout_until = null, updated_at = now()
		where id = $1
	`, identityID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
