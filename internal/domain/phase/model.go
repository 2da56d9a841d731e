package phase

import (
	"time"

	"github.com/google/uuid"
)

// DefaultColor is applied when a phase is created without a display color.
const DefaultColor = "#3B82F6"

// TreatmentPhase maps to the treatment_phase table. EndDate nil means the
// phase is ongoing. Seq is the insertion sequence that breaks DisplayOrder ties.
type TreatmentPhase struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	Name         string     `db:"name" json:"name"`
	Description  string     `db:"description" json:"description"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	DisplayOrder int        `db:"display_order" json:"display_order"`
	Color        string     `db:"color" json:"color"`
	Seq          int64      `db:"seq" json:"-"`
}

// IsOngoing reports whether the phase has no end date.
func (p *TreatmentPhase) IsOngoing() bool { return p.EndDate == nil }
