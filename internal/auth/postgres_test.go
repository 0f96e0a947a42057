package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("insert into identities").
		WithArgs("01TEST", "alice@example.com", "hash", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("insert into identity_claims").
		WithArgs("01TEST", ClaimDeletePatient, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	identity := &Identity{
		ID:             "01TEST",
		Email:          "Alice@Example.com",
		PasswordHash:   "hash",
		EmailConfirmed: true,
		Claims:         map[string]string{ClaimDeletePatient: ""},
	}
	if err := store.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if identity.CreatedAt.IsZero() {
		t.Fatalf("expected created_at populated from insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into identities").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
	mock.ExpectRollback()

	store := NewPGStore(db)
	err = store.Create(context.Background(), &Identity{ID: "01TEST", Email: "alice@example.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, email, password_hash").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "email_confirmed", "failed_logins", "lockout_until", "created_at", "updated_at",
		}).AddRow("01TEST", "alice@example.com", "hash", true, 2, nil, now, now))
	mock.ExpectQuery("select claim_name, claim_value from identity_claims").
		WithArgs("01TEST").
		WillReturnRows(sqlmock.NewRows([]string{"claim_name", "claim_value"}).
			AddRow(ClaimDeletePatient, ""))

	store := NewPGStore(db)
	identity, err := store.FindByEmail(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if identity.FailedLogins != 2 {
		t.Fatalf("unexpected failure counter: %d", identity.FailedLogins)
	}
	if identity.LockoutUntil != nil {
		t.Fatalf("expected no lockout")
	}
	if _, ok := identity.Claims[ClaimDeletePatient]; !ok {
		t.Fatalf("expected claim loaded, got %v", identity.Claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, email, password_hash").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "email_confirmed", "failed_logins", "lockout_until", "created_at", "updated_at",
		}))

	store := NewPGStore(db)
	if _, err := store.FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreRecordLoginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	until := time.Now().UTC().Add(5 * time.Minute)
	mock.ExpectExec("update identities").
		WithArgs("01TEST", 0, &until).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.RecordLoginFailure(context.Background(), "01TEST", 0, &until); err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreResetLoginFailuresMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update identities").
		WithArgs("01GONE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.ResetLoginFailures(context.Background(), "01GONE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
