package timeline

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

// -- Mock Repository --

type mockEventRepo struct {
	store   map[uuid.UUID]*TimelineEvent
	drugs   map[uuid.UUID]*drug.Drug
	nextSeq int64
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		store: make(map[uuid.UUID]*TimelineEvent),
		drugs: make(map[uuid.UUID]*drug.Drug),
	}
}

func (m *mockEventRepo) addDrug(name string) *drug.Drug {
	d := &drug.Drug{ID: uuid.New(), Name: name, DrugClass: "Chemotherapy", ParentFriendlyExplanation: name + " for parents"}
	m.drugs[d.ID] = d
	return d
}

func (m *mockEventRepo) checkDrugs(e *TimelineEvent) error {
	seen := map[uuid.UUID]bool{}
	for _, a := range e.Drugs {
		if seen[a.DrugID] {
			return storage.Conflictf("duplicate drug on event")
		}
		seen[a.DrugID] = true
		d, ok := m.drugs[a.DrugID]
		if !ok {
			return storage.InvalidReference("unknown drug")
		}
		a.Drug = d
	}
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id uuid.UUID) (*TimelineEvent, error) {
	e, ok := m.store[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e.Clone(), nil
}

func (m *mockEventRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TimelineEvent, error) {
	return m.ListByDateRange(ctx, patientID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *mockEventRepo) ListByDateRange(_ context.Context, patientID uuid.UUID, start, end time.Time) ([]*TimelineEvent, error) {
	items := []*TimelineEvent{}
	for _, e := range m.store {
		if e.PatientID == patientID && !e.EventDate.Before(start) && !e.EventDate.After(end) {
			items = append(items, e.Clone())
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EventDate.Equal(items[j].EventDate) {
			return items[i].EventDate.Before(items[j].EventDate)
		}
		return items[i].Seq < items[j].Seq
	})
	return items, nil
}

func (m *mockEventRepo) Create(_ context.Context, e *TimelineEvent) error {
	if err := m.checkDrugs(e); err != nil {
		return err
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.nextSeq++
	e.Seq = m.nextSeq
	for _, a := range e.Drugs {
		a.TimelineEventID = e.ID
	}
	m.store[e.ID] = e.Clone()
	return nil
}

func (m *mockEventRepo) Update(_ context.Context, e *TimelineEvent) error {
	cur, ok := m.store[e.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if err := m.checkDrugs(e); err != nil {
		return err
	}
	e.PatientID = cur.PatientID
	e.TreatmentPhaseID = cur.TreatmentPhaseID
	e.CreatedAt = cur.CreatedAt
	e.Seq = cur.Seq
	e.UpdatedAt = time.Now()
	m.store[e.ID] = e.Clone()
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

type recordedMutation struct {
	op  string
	err error
}

type mockRecorder struct {
	calls []recordedMutation
}

func (r *mockRecorder) RecordMutation(op string, err error) {
	r.calls = append(r.calls, recordedMutation{op, err})
}

func newTestService() (*Service, *mockEventRepo, *mockRecorder) {
	repo := newMockEventRepo()
	rec := &mockRecorder{}
	svc := NewService(repo)
	svc.SetMutationRecorder(rec)
	return svc, repo, rec
}

func day(d int) time.Time {
	return time.Date(2025, 2, d, 9, 0, 0, 0, time.UTC)
}

func TestCreateEvent_RoundTrip(t *testing.T) {
	svc, repo, _ := newTestService()
	vcr := repo.addDrug("Vincristine")
	patientID := uuid.New()

	v, err := svc.CreateEvent(context.Background(), CreateEventInput{
		PatientID: patientID,
		Title:     "Vincristine Infusion",
		EventDate: day(2),
		Category:  CategoryChemotherapy,
		Drugs:     []DrugInput{{DrugID: vcr.ID, Dosage: "1.5mg/m2", Route: "IV"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID == uuid.Nil || v.TreatmentPhaseID != nil {
		t.Errorf("unexpected identity: %+v", v)
	}

	got, err := svc.GetEvent(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Vincristine Infusion" || !got.EventDate.Equal(day(2)) || got.Category != CategoryChemotherapy {
		t.Errorf("fields not preserved: %+v", got)
	}
	if len(got.Drugs) != 1 {
		t.Fatalf("expected 1 drug, got %d", len(got.Drugs))
	}
	want := EventDrugView{
		DrugID:                    vcr.ID,
		Name:                      "Vincristine",
		DrugClass:                 "Chemotherapy",
		ParentFriendlyExplanation: "Vincristine for parents",
		Dosage:                    "1.5mg/m2",
		Route:                     "IV",
	}
	if got.Drugs[0] != want {
		t.Errorf("expected %+v, got %+v", want, got.Drugs[0])
	}
}

func TestCreateEvent_NilPhaseNormalised(t *testing.T) {
	svc, _, _ := newTestService()
	nilID := uuid.Nil
	v, err := svc.CreateEvent(context.Background(), CreateEventInput{
		PatientID: uuid.New(), TreatmentPhaseID: &nilID, Title: "Clinic visit", EventDate: day(3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TreatmentPhaseID != nil {
		t.Errorf("expected nil phase, got %v", v.TreatmentPhaseID)
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateEventInput
	}{
		{"missing patient", CreateEventInput{Title: "x", EventDate: day(1)}},
		{"blank title", CreateEventInput{PatientID: uuid.New(), Title: "  ", EventDate: day(1)}},
		{"missing date", CreateEventInput{PatientID: uuid.New(), Title: "x"}},
		{"missing drug id", CreateEventInput{PatientID: uuid.New(), Title: "x", EventDate: day(1), Drugs: []DrugInput{{Dosage: "1mg"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, rec := newTestService()
			_, err := svc.CreateEvent(context.Background(), tt.in)
			if !errors.Is(err, storage.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.store) != 0 {
				t.Error("expected nothing stored")
			}
			if len(rec.calls) != 1 || rec.calls[0].op != OpCreate {
				t.Errorf("expected one create mutation recorded, got %+v", rec.calls)
			}
		})
	}
}

func TestCreateEvent_DuplicateDrugConflict(t *testing.T) {
	svc, repo, rec := newTestService()
	d := repo.addDrug("Methotrexate")
	_, err := svc.CreateEvent(context.Background(), CreateEventInput{
		PatientID: uuid.New(),
		Title:     "IT Methotrexate",
		EventDate: day(4),
		Drugs: []DrugInput{
			{DrugID: d.ID, Dosage: "12mg", Route: "IT"},
			{DrugID: d.ID, Dosage: "15mg", Route: "IT"},
		},
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("expected nothing stored after conflict")
	}
	if !errors.Is(rec.calls[0].err, storage.ErrConflict) {
		t.Errorf("expected conflict recorded, got %v", rec.calls[0].err)
	}
}

func TestCreateEvent_UnknownDrug(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateEvent(context.Background(), CreateEventInput{
		PatientID: uuid.New(), Title: "x", EventDate: day(1),
		Drugs: []DrugInput{{DrugID: uuid.New()}},
	})
	if !errors.Is(err, storage.ErrInvalidReference) {
		t.Fatalf("expected invalid reference, got %v", err)
	}
}

func TestUpdateEvent_ReplacesAssociations(t *testing.T) {
	svc, repo, _ := newTestService()
	a, b, c := repo.addDrug("Vincristine"), repo.addDrug("Daunorubicin"), repo.addDrug("Prednisone")
	patientID := uuid.New()
	phaseID := uuid.New()
	created, err := svc.CreateEvent(context.Background(), CreateEventInput{
		PatientID: patientID, TreatmentPhaseID: &phaseID, Title: "Day 1", EventDate: day(1),
		Drugs: []DrugInput{{DrugID: a.ID, Dosage: "1.5mg/m2", Route: "IV"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateEvent(context.Background(), created.ID, UpdateEventInput{
		Title: "Day 1 (revised)", EventDate: day(2), Category: CategoryChemotherapy, Notes: "tolerated well", Tags: "induction",
		Drugs: []DrugInput{
			{DrugID: b.ID, Dosage: "25mg/m2", Route: "IV"},
			{DrugID: c.ID, Dosage: "60mg/m2", Route: "PO"},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PatientID != patientID || updated.TreatmentPhaseID == nil || *updated.TreatmentPhaseID != phaseID {
		t.Errorf("patient/phase changed by update: %+v", updated)
	}
	if len(updated.Drugs) != 2 || updated.Drugs[0].DrugID != b.ID || updated.Drugs[1].DrugID != c.ID {
		t.Fatalf("unexpected associations: %+v", updated.Drugs)
	}
	for _, d := range updated.Drugs {
		if d.DrugID == a.ID {
			t.Error("prior association survived update")
		}
	}
	if updated.Title != "Day 1 (revised)" || updated.Notes != "tolerated well" || updated.Tags != "induction" {
		t.Errorf("fields not replaced: %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("expected updated_at refreshed")
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	svc, repo, rec := newTestService()
	_, err := svc.UpdateEvent(context.Background(), uuid.New(), UpdateEventInput{Title: "x", EventDate: day(1)})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("expected storage untouched")
	}
	if rec.calls[0].op != OpUpdate || !errors.Is(rec.calls[0].err, storage.ErrNotFound) {
		t.Errorf("unexpected recorded mutation %+v", rec.calls[0])
	}
}

func TestDeleteEvent_UnknownIDSucceeds(t *testing.T) {
	svc, _, rec := newTestService()
	if err := svc.DeleteEvent(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0].op != OpDelete || rec.calls[0].err != nil {
		t.Errorf("unexpected recorded mutations %+v", rec.calls)
	}
}

func TestDeleteEvent_RemovesEvent(t *testing.T) {
	svc, _, _ := newTestService()
	v, _ := svc.CreateEvent(context.Background(), CreateEventInput{PatientID: uuid.New(), Title: "x", EventDate: day(1)})
	if err := svc.DeleteEvent(context.Background(), v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetEvent(context.Background(), v.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetPatientTimeline_Ordered(t *testing.T) {
	svc, _, _ := newTestService()
	patientID := uuid.New()
	for _, d := range []int{10, 2, 7, 2} {
		svc.CreateEvent(context.Background(), CreateEventInput{PatientID: patientID, Title: "e", EventDate: day(d)})
	}
	svc.CreateEvent(context.Background(), CreateEventInput{PatientID: uuid.New(), Title: "other", EventDate: day(1)})

	views, err := svc.GetPatientTimeline(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected 4 events, got %d", len(views))
	}
	for i := 1; i < len(views); i++ {
		if views[i].EventDate.Before(views[i-1].EventDate) {
			t.Errorf("events out of order at %d", i)
		}
	}
}

func TestGetTimelineByDateRange(t *testing.T) {
	svc, _, _ := newTestService()
	patientID := uuid.New()
	for _, d := range []int{1, 5, 10, 15} {
		svc.CreateEvent(context.Background(), CreateEventInput{PatientID: patientID, Title: "e", EventDate: day(d)})
	}

	views, err := svc.GetTimelineByDateRange(context.Background(), patientID, day(5), day(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 || !views[0].EventDate.Equal(day(5)) || !views[1].EventDate.Equal(day(10)) {
		t.Errorf("expected inclusive bounds, got %d events", len(views))
	}

	inverted, err := svc.GetTimelineByDateRange(context.Background(), patientID, day(10), day(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inverted) != 0 {
		t.Errorf("expected no events for inverted range, got %d", len(inverted))
	}
}

func TestNewView_MissingDrugData(t *testing.T) {
	id := uuid.New()
	v := NewView(&TimelineEvent{Drugs: []*TimelineEventDrug{{DrugID: id, Dosage: "1mg"}}})
	if len(v.Drugs) != 1 || v.Drugs[0].DrugID != id || v.Drugs[0].Name != "" {
		t.Errorf("unexpected view %+v", v.Drugs)
	}
}

func TestNewView_EmptyDrugsIsNonNil(t *testing.T) {
	v := NewView(&TimelineEvent{})
	if v.Drugs == nil {
		t.Error("expected empty, non-nil drugs slice")
	}
}
