package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

// Mutation operations reported to a MutationRecorder.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// MutationRecorder observes the outcome of every event mutation.
type MutationRecorder interface {
	RecordMutation(op string, err error)
}

type Service struct {
	events   EventRepository
	recorder MutationRecorder
}

func NewService(events EventRepository) *Service {
	return &Service{events: events}
}

func (s *Service) SetMutationRecorder(r MutationRecorder) { s.recorder = r }

func (s *Service) record(op string, err error) {
	if s.recorder != nil {
		s.recorder.RecordMutation(op, err)
	}
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*EventView, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return NewView(e), nil
}

func (s *Service) GetPatientTimeline(ctx context.Context, patientID uuid.UUID) ([]*EventView, error) {
	events, err := s.events.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list timeline for patient %s: %w", patientID, err)
	}
	return newViews(events), nil
}

// GetTimelineByDateRange returns the patient's events with start <= date <= end.
// An inverted range yields no events.
func (s *Service) GetTimelineByDateRange(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*EventView, error) {
	events, err := s.events.ListByDateRange(ctx, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list timeline for patient %s in range: %w", patientID, err)
	}
	return newViews(events), nil
}

// CreateEvent stores a new event and one association per drug triple.
// Referenced patient, phase and drugs are checked by storage, not here.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*EventView, error) {
	if in.PatientID == uuid.Nil {
		err := storage.Invalid("patient_id is required")
		s.record(OpCreate, err)
		return nil, err
	}
	if in.TreatmentPhaseID != nil && *in.TreatmentPhaseID == uuid.Nil {
		in.TreatmentPhaseID = nil
	}
	title, err := validateFields(in.Title, in.EventDate, in.Drugs)
	if err != nil {
		s.record(OpCreate, err)
		return nil, err
	}

	e := &TimelineEvent{
		PatientID:        in.PatientID,
		TreatmentPhaseID: in.TreatmentPhaseID,
		Title:            title,
		EventDate:        in.EventDate,
		Category:         in.Category,
		Notes:            in.Notes,
		Tags:             in.Tags,
		Drugs:            buildAssociations(uuid.Nil, in.Drugs),
	}
	err = s.events.Create(ctx, e)
	s.record(OpCreate, err)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return NewView(e), nil
}

// UpdateEvent replaces the event's mutable fields and its entire drug
// association set.
func (s *Service) UpdateEvent(ctx context.Context, id uuid.UUID, in UpdateEventInput) (*EventView, error) {
	title, err := validateFields(in.Title, in.EventDate, in.Drugs)
	if err != nil {
		s.record(OpUpdate, err)
		return nil, err
	}

	e := &TimelineEvent{
		ID:        id,
		Title:     title,
		EventDate: in.EventDate,
		Category:  in.Category,
		Notes:     in.Notes,
		Tags:      in.Tags,
		Drugs:     buildAssociations(id, in.Drugs),
	}
	err = s.events.Update(ctx, e)
	s.record(OpUpdate, err)
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}
	return NewView(e), nil
}

// DeleteEvent removes the event. Deleting an unknown id succeeds.
func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	err := s.events.Delete(ctx, id)
	s.record(OpDelete, err)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

func validateFields(title string, date time.Time, drugs []DrugInput) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", storage.Invalid("title is required")
	}
	if date.IsZero() {
		return "", storage.Invalid("event_date is required")
	}
	for i, d := range drugs {
		if d.DrugID == uuid.Nil {
			return "", storage.Invalid(fmt.Sprintf("drugs[%d].drug_id is required", i))
		}
	}
	return title, nil
}
