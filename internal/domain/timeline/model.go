package timeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
)

// Common event categories. Category is free text; these are the values the
// reference data and UI use.
const (
	CategoryChemotherapy    = "Chemotherapy"
	CategorySpinalTap       = "SpinalTap"
	CategoryLab             = "Lab"
	CategorySymptom         = "Symptom"
	CategoryHospitalization = "Hospitalization"
	CategoryNote            = "Note"
)

// TimelineEvent maps to the timeline_event table. Drugs holds the event's
// associations in the order they were supplied.
type TimelineEvent struct {
	ID               uuid.UUID            `db:"id" json:"id"`
	PatientID        uuid.UUID            `db:"patient_id" json:"patient_id"`
	TreatmentPhaseID *uuid.UUID           `db:"treatment_phase_id" json:"treatment_phase_id,omitempty"`
	Title            string               `db:"title" json:"title"`
	EventDate        time.Time            `db:"event_date" json:"event_date"`
	Category         string               `db:"category" json:"category"`
	Notes            string               `db:"notes" json:"notes"`
	Tags             string               `db:"tags" json:"tags"`
	CreatedAt        time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time            `db:"updated_at" json:"updated_at"`
	Seq              int64                `db:"seq" json:"-"`
	Drugs            []*TimelineEventDrug `db:"-" json:"drugs"`
}

// TimelineEventDrug maps to the timeline_event_drug table. The pair
// (TimelineEventID, DrugID) is unique. Drug is filled by reads.
type TimelineEventDrug struct {
	TimelineEventID uuid.UUID  `db:"timeline_event_id" json:"timeline_event_id"`
	DrugID          uuid.UUID  `db:"drug_id" json:"drug_id"`
	Dosage          string     `db:"dosage" json:"dosage"`
	Route           string     `db:"route" json:"route"`
	Drug            *drug.Drug `db:"-" json:"drug,omitempty"`
}

// Clone returns a deep copy of e. Referenced drugs are shared.
func (e *TimelineEvent) Clone() *TimelineEvent {
	if e == nil {
		return nil
	}
	c := *e
	if e.TreatmentPhaseID != nil {
		id := *e.TreatmentPhaseID
		c.TreatmentPhaseID = &id
	}
	c.Drugs = make([]*TimelineEventDrug, len(e.Drugs))
	for i, d := range e.Drugs {
		a := *d
		c.Drugs[i] = &a
	}
	return &c
}

// DrugInput is one (drug, dosage, route) triple supplied on create or update.
type DrugInput struct {
	DrugID uuid.UUID `json:"drug_id"`
	Dosage string    `json:"dosage"`
	Route  string    `json:"route"`
}

type CreateEventInput struct {
	PatientID        uuid.UUID   `json:"patient_id"`
	TreatmentPhaseID *uuid.UUID  `json:"treatment_phase_id,omitempty"`
	Title            string      `json:"title"`
	EventDate        time.Time   `json:"event_date"`
	Category         string      `json:"category"`
	Notes            string      `json:"notes"`
	Tags             string      `json:"tags"`
	Drugs            []DrugInput `json:"drugs"`
}

// UpdateEventInput replaces every mutable field of an event. Patient and
// phase are fixed at creation.
type UpdateEventInput struct {
	Title     string      `json:"title"`
	EventDate time.Time   `json:"event_date"`
	Category  string      `json:"category"`
	Notes     string      `json:"notes"`
	Tags      string      `json:"tags"`
	Drugs     []DrugInput `json:"drugs"`
}

// EventView is the read shape of an event: its own fields plus the flattened
// drug records.
type EventView struct {
	ID               uuid.UUID       `json:"id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	TreatmentPhaseID *uuid.UUID      `json:"treatment_phase_id"`
	Title            string          `json:"title"`
	EventDate        time.Time       `json:"event_date"`
	Category         string          `json:"category"`
	Notes            string          `json:"notes"`
	Tags             string          `json:"tags"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Drugs            []EventDrugView `json:"drugs"`
}

type EventDrugView struct {
	DrugID                    uuid.UUID `json:"drug_id"`
	Name                      string    `json:"name"`
	DrugClass                 string    `json:"drug_class"`
	ParentFriendlyExplanation string    `json:"parent_friendly_explanation"`
	Dosage                    string    `json:"dosage"`
	Route                     string    `json:"route"`
}

// NewView projects e and its hydrated associations into an EventView.
func NewView(e *TimelineEvent) *EventView {
	v := &EventView{
		ID:               e.ID,
		PatientID:        e.PatientID,
		TreatmentPhaseID: e.TreatmentPhaseID,
		Title:            e.Title,
		EventDate:        e.EventDate,
		Category:         e.Category,
		Notes:            e.Notes,
		Tags:             e.Tags,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		Drugs:            make([]EventDrugView, 0, len(e.Drugs)),
	}
	for _, a := range e.Drugs {
		dv := EventDrugView{DrugID: a.DrugID, Dosage: a.Dosage, Route: a.Route}
		if a.Drug != nil {
			dv.Name = a.Drug.Name
			dv.DrugClass = a.Drug.DrugClass
			dv.ParentFriendlyExplanation = a.Drug.ParentFriendlyExplanation
		}
		v.Drugs = append(v.Drugs, dv)
	}
	return v
}

func newViews(events []*TimelineEvent) []*EventView {
	out := make([]*EventView, 0, len(events))
	for _, e := range events {
		out = append(out, NewView(e))
	}
	return out
}

func buildAssociations(eventID uuid.UUID, in []DrugInput) []*TimelineEventDrug {
	out := make([]*TimelineEventDrug, 0, len(in))
	for _, d := range in {
		out = append(out, &TimelineEventDrug{
			TimelineEventID: eventID,
			DrugID:          d.DrugID,
			Dosage:          d.Dosage,
			Route:           d.Route,
		})
	}
	return out
}
