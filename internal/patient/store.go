package patient

import "context"

// Store owns the durable state of patient records. The service keeps no
// cache; every read goes to the store.
type Store interface {
	// List returns all records in creation order.
	List(ctx context.Context) ([]Patient, error)

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id string) (Patient, error)

	// Exists reports record presence without loading it. The exists-then-write
	// sequence in update is two separate round trips with no transaction; a
	// concurrent update results in last-writer-wins, which is accepted.
	Exists(ctx context.Context, id string) (bool, error)

	// Create inserts the record, assigning the identifier when empty.
	Create(ctx context.Context, p *Patient) error

	// Update replaces name, document and active keyed by p.ID. Returns
	// ErrNoRowsAffected when nothing was written.
	Update(ctx context.Context, p *Patient) error

	// Delete removes the record. Returns ErrNoRowsAffected when nothing was
	// deleted.
	Delete(ctx context.Context, id string) error
}
