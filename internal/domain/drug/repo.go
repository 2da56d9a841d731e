package drug

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	// GetByName matches the full name case-insensitively. When several drugs
	// share a name the first one in name order is returned.
	GetByName(ctx context.Context, name string) (*Drug, error)
	List(ctx context.Context) ([]*Drug, error)
}
