package phase

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *TreatmentPhase) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentPhase, error)
	// ListByPatient orders by DisplayOrder, then insertion order.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPhase, error)
}
