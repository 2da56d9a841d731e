package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventRepository stores timeline events with their drug associations.
// Reads return associations in insertion order with Drug populated.
// Create and Update are all-or-nothing.
type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TimelineEvent, error)
	// ListByPatient orders by EventDate, then creation order.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TimelineEvent, error)
	// ListByDateRange is ListByPatient restricted to start <= EventDate <= end.
	ListByDateRange(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*TimelineEvent, error)
	// Create assigns ID and timestamps. A repeated DrugID fails with
	// storage.ErrConflict.
	Create(ctx context.Context, e *TimelineEvent) error
	// Update overwrites the mutable fields of the event with e.ID and
	// replaces its associations with e.Drugs. PatientID, TreatmentPhaseID
	// and CreatedAt are read back from storage into e.
	Update(ctx context.Context, e *TimelineEvent) error
	// Delete removes the event and its associations. Unknown ids are not
	// an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
