package patient

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) List(ctx context.Context) ([]Patient, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, document, active, created_at, updated_at
		from patients order by created_at asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Patient, 0)
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Document, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id string) (Patient, error) {
	var p Patient
	err := s.db.QueryRowContext(ctx, `
		select id, name, document, active, created_at, updated_at
		from patients where id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Document, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Patient{}, ErrNotFound
	}
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *PGStore) Exists(ctx context.Context, id string) (bool, error) {
	var dummy int
	err := s.db.QueryRowContext(ctx, `select 1 from patients where id = $1`, id).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.db.QueryRowContext(ctx, `
		insert into patients(id, name, document, active)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, p.ID, p.Name, p.Document, p.Active).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *PGStore) Update(ctx context.Context, p *Patient) error {
	res, err := s.db.ExecContext(ctx, `
		update patients
		set name = $2, document = $3, active = $4, updated_at = now()
		where id = $1
	`, p.ID, p.Name, p.Document, p.Active)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from patients where id = $1`, id)
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
		return ErrNoRowsAffected
	}
	return nil
}
