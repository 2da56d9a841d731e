package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create keeps a caller-supplied ID and generates one otherwise. An ID
	// that already exists fails with storage.ErrConflict.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}
