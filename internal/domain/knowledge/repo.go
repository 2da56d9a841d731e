package knowledge

import (
	"context"

	"github.com/google/uuid"
)

// Repository lists articles ordered by title. Category and audience filters
// are exact matches.
type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	List(ctx context.Context) ([]*Article, error)
	ListByCategory(ctx context.Context, category string) ([]*Article, error)
	ListByAudience(ctx context.Context, audience string) ([]*Article, error)
}
