package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Identity fields are fixed once created.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	DateOfBirth   time.Time  `db:"date_of_birth" json:"date_of_birth"`
	DiagnosisDate *time.Time `db:"diagnosis_date" json:"diagnosis_date,omitempty"`
	DiagnosisType string     `db:"diagnosis_type" json:"diagnosis_type"`
	RiskCategory  string     `db:"risk_category" json:"risk_category"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
