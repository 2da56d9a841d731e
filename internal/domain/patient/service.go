package patient

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

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return storage.Invalid("first_name is required")
	}
	if p.LastName == "" {
		return storage.Invalid("last_name is required")
	}
	if p.DateOfBirth.IsZero() {
		return storage.Invalid("date_of_birth is required")
	}
	if p.DiagnosisDate != nil && p.DiagnosisDate.Before(p.DateOfBirth) {
		return storage.Invalid("diagnosis_date is before date_of_birth")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", id, err)
	}
	return p, nil
}
