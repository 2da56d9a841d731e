package drug

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDrug(ctx context.Context, d *Drug) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return storage.Invalid("name is required")
	}
	for _, se := range d.SideEffects {
		if strings.TrimSpace(se.EffectName) == "" {
			return storage.Invalid("side effect name is required")
		}
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return fmt.Errorf("create drug: %w", err)
	}
	return nil
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get drug %s: %w", id, err)
	}
	return d, nil
}

func (s *Service) GetDrugByName(ctx context.Context, name string) (*Drug, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, storage.Invalid("name is required")
	}
	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get drug %q: %w", name, err)
	}
	return d, nil
}

func (s *Service) ListDrugs(ctx context.Context) ([]*Drug, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drugs: %w", err)
	}
	return items, nil
}
