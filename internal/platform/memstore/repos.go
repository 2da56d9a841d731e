package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

var now = func() time.Time { return time.Now().UTC() }

// -- patients --

type patientRepo struct{ s *Store }

func (r *patientRepo) Create(ctx context.Context, p *patient.Patient) error {
	return r.s.mutate(ctx, func(st *state) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if _, ok := st.patients[p.ID]; ok {
			return storage.Conflictf("patient " + p.ID.String() + " already exists")
		}
		t := now()
		p.CreatedAt = t
		p.UpdatedAt = t
		c := *p
		st.patients[p.ID] = &c
		return nil
	})
}

func (r *patientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var out *patient.Patient
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.patients[id]
		if !ok {
			return storage.ErrNotFound
		}
		c := *p
		out = &c
		return nil
	})
	return out, err
}

// -- phases --

type phaseRepo struct{ s *Store }

func (r *phaseRepo) Create(ctx context.Context, p *phase.TreatmentPhase) error {
	return r.s.mutate(ctx, func(st *state) error {
		if _, ok := st.patients[p.PatientID]; !ok {
			return storage.InvalidReference("patient " + p.PatientID.String() + " does not exist")
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if st.phase(p.ID) != nil {
			return storage.Conflictf("treatment phase " + p.ID.String() + " already exists")
		}
		p.Seq = st.nextSeq()
		c := *p
		st.phases = append(st.phases, &c)
		return nil
	})
}

func (r *phaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*phase.TreatmentPhase, error) {
	var out *phase.TreatmentPhase
	err := r.s.read(ctx, func(st *state) error {
		p := st.phase(id)
		if p == nil {
			return storage.ErrNotFound
		}
		c := *p
		out = &c
		return nil
	})
	return out, err
}

func (r *phaseRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*phase.TreatmentPhase, error) {
	out := []*phase.TreatmentPhase{}
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.phases {
			if p.PatientID == patientID {
				c := *p
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, err
}

// -- drugs --

type drugRepo struct{ s *Store }

func (r *drugRepo) Create(ctx context.Context, d *drug.Drug) error {
	return r.s.mutate(ctx, func(st *state) error {
		t := now()
		d.ID = uuid.New()
		d.CreatedAt = t
		d.UpdatedAt = t
		if d.SideEffects == nil {
			d.SideEffects = []*drug.SideEffect{}
		}
		for _, se := range d.SideEffects {
			se.ID = uuid.New()
			se.DrugID = d.ID
		}
		st.drugs = append(st.drugs, d.Clone())
		return nil
	})
}

func (r *drugRepo) GetByID(ctx context.Context, id uuid.UUID) (*drug.Drug, error) {
	var out *drug.Drug
	err := r.s.read(ctx, func(st *state) error {
		d := st.drug(id)
		if d == nil {
			return storage.ErrNotFound
		}
		out = d.Clone()
		return nil
	})
	return out, err
}

func (r *drugRepo) GetByName(ctx context.Context, name string) (*drug.Drug, error) {
	var out *drug.Drug
	err := r.s.read(ctx, func(st *state) error {
		for _, d := range st.sortedDrugs() {
			if strings.EqualFold(d.Name, name) {
				out = d.Clone()
				return nil
			}
		}
		return storage.ErrNotFound
	})
	return out, err
}

func (r *drugRepo) List(ctx context.Context) ([]*drug.Drug, error) {
	out := []*drug.Drug{}
	err := r.s.read(ctx, func(st *state) error {
		for _, d := range st.sortedDrugs() {
			out = append(out, d.Clone())
		}
		return nil
	})
	return out, err
}

// -- timeline events --

type eventRepo struct{ s *Store }

// checkAssociations enforces the (event, drug) key and the drug foreign key.
func checkAssociations(st *state, drugs []*timeline.TimelineEventDrug) error {
	seen := make(map[uuid.UUID]bool, len(drugs))
	for _, a := range drugs {
		if seen[a.DrugID] {
			return storage.Conflictf("drug " + a.DrugID.String() + " is already associated with the event")
		}
		seen[a.DrugID] = true
		if st.drug(a.DrugID) == nil {
			return storage.InvalidReference("drug " + a.DrugID.String() + " does not exist")
		}
	}
	return nil
}

// hydrate returns a copy of e with each association's Drug filled in.
func hydrate(st *state, e *timeline.TimelineEvent) *timeline.TimelineEvent {
	c := e.Clone()
	for _, a := range c.Drugs {
		if d := st.drug(a.DrugID); d != nil {
			ref := *d
			ref.SideEffects = nil
			a.Drug = &ref
		}
	}
	return c
}

// stored returns a copy of e fit for the state: no hydrated drugs.
func stored(e *timeline.TimelineEvent) *timeline.TimelineEvent {
	c := e.Clone()
	for _, a := range c.Drugs {
		a.Drug = nil
	}
	return c
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*timeline.TimelineEvent, error) {
	var out *timeline.TimelineEvent
	err := r.s.read(ctx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return storage.ErrNotFound
		}
		out = hydrate(st, e)
		return nil
	})
	return out, err
}

func (r *eventRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*timeline.TimelineEvent, error) {
	return r.list(ctx, func(e *timeline.TimelineEvent) bool { return e.PatientID == patientID })
}

func (r *eventRepo) ListByDateRange(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*timeline.TimelineEvent, error) {
	return r.list(ctx, func(e *timeline.TimelineEvent) bool {
		return e.PatientID == patientID && !e.EventDate.Before(start) && !e.EventDate.After(end)
	})
}

func (r *eventRepo) list(ctx context.Context, keep func(*timeline.TimelineEvent) bool) ([]*timeline.TimelineEvent, error) {
	out := []*timeline.TimelineEvent{}
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.events {
			if keep(e) {
				out = append(out, hydrate(st, e))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, err
}

func (r *eventRepo) Create(ctx context.Context, e *timeline.TimelineEvent) error {
	return r.s.mutate(ctx, func(st *state) error {
		if _, ok := st.patients[e.PatientID]; !ok {
			return storage.InvalidReference("patient " + e.PatientID.String() + " does not exist")
		}
		if e.TreatmentPhaseID != nil && st.phase(*e.TreatmentPhaseID) == nil {
			return storage.InvalidReference("treatment phase " + e.TreatmentPhaseID.String() + " does not exist")
		}
		if err := checkAssociations(st, e.Drugs); err != nil {
			return err
		}
		t := now()
		e.ID = uuid.New()
		e.CreatedAt = t
		e.UpdatedAt = t
		e.Seq = st.nextSeq()
		for _, a := range e.Drugs {
			a.TimelineEventID = e.ID
		}
		st.events[e.ID] = stored(e)
		*e = *hydrate(st, e)
		return nil
	})
}

func (r *eventRepo) Update(ctx context.Context, e *timeline.TimelineEvent) error {
	return r.s.mutate(ctx, func(st *state) error {
		cur, ok := st.events[e.ID]
		if !ok {
			return storage.ErrNotFound
		}
		if err := checkAssociations(st, e.Drugs); err != nil {
			return err
		}
		e.PatientID = cur.PatientID
		e.TreatmentPhaseID = cur.TreatmentPhaseID
		e.CreatedAt = cur.CreatedAt
		e.Seq = cur.Seq
		e.UpdatedAt = now()
		for _, a := range e.Drugs {
			a.TimelineEventID = e.ID
		}
		st.events[e.ID] = stored(e)
		*e = *hydrate(st, e)
		return nil
	})
}

func (r *eventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := r.s.read(ctx, func(st *state) error {
		_, found = st.events[id]
		return nil
	})
	if err != nil || !found {
		return err
	}
	return r.s.mutate(ctx, func(st *state) error {
		delete(st.events, id)
		return nil
	})
}

// -- knowledge articles --

type articleRepo struct{ s *Store }

func (r *articleRepo) Create(ctx context.Context, a *knowledge.Article) error {
	return r.s.mutate(ctx, func(st *state) error {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if st.article(a.ID) != nil {
			return storage.Conflictf("article " + a.ID.String() + " already exists")
		}
		c := *a
		st.articles = append(st.articles, &c)
		return nil
	})
}

func (r *articleRepo) GetByID(ctx context.Context, id uuid.UUID) (*knowledge.Article, error) {
	var out *knowledge.Article
	err := r.s.read(ctx, func(st *state) error {
		a := st.article(id)
		if a == nil {
			return storage.ErrNotFound
		}
		c := *a
		out = &c
		return nil
	})
	return out, err
}

func (r *articleRepo) List(ctx context.Context) ([]*knowledge.Article, error) {
	return r.filter(ctx, func(*knowledge.Article) bool { return true })
}

func (r *articleRepo) ListByCategory(ctx context.Context, category string) ([]*knowledge.Article, error) {
	return r.filter(ctx, func(a *knowledge.Article) bool { return a.Category == category })
}

func (r *articleRepo) ListByAudience(ctx context.Context, audience string) ([]*knowledge.Article, error) {
	return r.filter(ctx, func(a *knowledge.Article) bool { return a.Audience == audience })
}

func (r *articleRepo) filter(ctx context.Context, keep func(*knowledge.Article) bool) ([]*knowledge.Article, error) {
	out := []*knowledge.Article{}
	err := r.s.read(ctx, func(st *state) error {
		for _, a := range st.articles {
			if keep(a) {
				c := *a
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, err
}
