package phase

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

// CreatePhase stores a new phase. Overlapping or repeated display orders
// are accepted.
func (s *Service) CreatePhase(ctx context.Context, p *TreatmentPhase) error {
	if p.PatientID == uuid.Nil {
		return storage.Invalid("patient_id is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return storage.Invalid("name is required")
	}
	if p.StartDate.IsZero() {
		return storage.Invalid("start_date is required")
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create phase: %w", err)
	}
	return nil
}

func (s *Service) GetPhase(ctx context.Context, id uuid.UUID) (*TreatmentPhase, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get phase %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) ListPatientPhases(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPhase, error) {
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list phases for patient %s: %w", patientID, err)
	}
	return items, nil
}
