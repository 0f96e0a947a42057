package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("insert into patients").
		WithArgs(sqlmock.AnyArg(), "Alice", "123", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := NewPGStore(db)
	p := &Patient{Name: "Alice", Document: "123", Active: true}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, name, document").
		WithArgs("4be0a9f0-0000-0000-0000-000000000000").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "document", "active", "created_at", "updated_at"}))

	store := NewPGStore(db)
	_, err = store.Get(context.Background(), "4be0a9f0-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreUpdateZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update patients").
		WithArgs("4be0a9f0-0000-0000-0000-000000000000", "Alice", "123", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	err = store.Update(context.Background(), &Patient{
		ID: "4be0a9f0-0000-0000-0000-000000000000", Name: "Alice", Document: "123", Active: true,
	})
	if !errors.Is(err, ErrNoRowsAffected) {
		t.Fatalf("expected ErrNoRowsAffected, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from patients").
		WithArgs("4be0a9f0-0000-0000-0000-000000000000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), "4be0a9f0-0000-0000-0000-000000000000"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select 1 from patients").
		WithArgs("4be0a9f0-0000-0000-0000-000000000000").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	store := NewPGStore(db)
	ok, err := store.Exists(context.Background(), "4be0a9f0-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected record to exist")
	}
}
