package memstore

import (
	"sort"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
)

// Snapshot is the serialisable form of the store. Phases and Events are in
// insertion order, which is how ties are broken after a reload.
type Snapshot struct {
	Patients []*patient.Patient        `json:"patients"`
	Phases   []*phase.TreatmentPhase   `json:"phases"`
	Drugs    []*drug.Drug              `json:"drugs"`
	Events   []*timeline.TimelineEvent `json:"events"`
	Articles []*knowledge.Article      `json:"articles"`
}

func (st *state) snapshot() *Snapshot {
	snap := &Snapshot{
		Patients: make([]*patient.Patient, 0, len(st.patients)),
		Phases:   make([]*phase.TreatmentPhase, 0, len(st.phases)),
		Drugs:    make([]*drug.Drug, 0, len(st.drugs)),
		Events:   make([]*timeline.TimelineEvent, 0, len(st.events)),
		Articles: make([]*knowledge.Article, 0, len(st.articles)),
	}
	for _, p := range st.patients {
		c := *p
		snap.Patients = append(snap.Patients, &c)
	}
	sort.Slice(snap.Patients, func(i, j int) bool {
		return snap.Patients[i].ID.String() < snap.Patients[j].ID.String()
	})
	for _, p := range st.phases {
		c := *p
		snap.Phases = append(snap.Phases, &c)
	}
	for _, d := range st.drugs {
		snap.Drugs = append(snap.Drugs, d.Clone())
	}
	for _, e := range st.events {
		snap.Events = append(snap.Events, e.Clone())
	}
	sort.Slice(snap.Events, func(i, j int) bool { return snap.Events[i].Seq < snap.Events[j].Seq })
	for _, a := range st.articles {
		c := *a
		snap.Articles = append(snap.Articles, &c)
	}
	return snap
}

// fromSnapshot rebuilds a state, renumbering insertion sequences in the
// order phases and events appear.
func fromSnapshot(snap *Snapshot) *state {
	st := newState()
	for _, p := range snap.Patients {
		c := *p
		st.patients[c.ID] = &c
	}
	for _, p := range snap.Phases {
		c := *p
		c.Seq = st.nextSeq()
		st.phases = append(st.phases, &c)
	}
	for _, d := range snap.Drugs {
		c := d.Clone()
		if c.SideEffects == nil {
			c.SideEffects = []*drug.SideEffect{}
		}
		st.drugs = append(st.drugs, c)
	}
	for _, e := range snap.Events {
		c := e.Clone()
		c.Seq = st.nextSeq()
		for _, a := range c.Drugs {
			a.Drug = nil
		}
		st.events[c.ID] = c
	}
	for _, a := range snap.Articles {
		c := *a
		st.articles = append(st.articles, &c)
	}
	return st
}
