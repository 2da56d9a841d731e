// Package memstore implements every repository over one in-process state.
//
// Writes are applied to a copy of the state and swapped in only when they
// succeed, so a failed mutation leaves nothing behind. The store enforces
// the same constraints as the postgres schema: foreign keys, the
// (event, drug) key and event deletion cascading to associations.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
)

// CommitFunc is called with the state a mutation produced before it becomes
// visible. Returning an error discards the mutation.
type CommitFunc func(ctx context.Context, snap *Snapshot) error

type Option func(*Store)

// WithCommitHook registers fn to run on every successful mutation.
func WithCommitHook(fn CommitFunc) Option {
	return func(s *Store) { s.onCommit = fn }
}

// WithSnapshot starts the store from snap instead of an empty state.
func WithSnapshot(snap *Snapshot) Option {
	return func(s *Store) {
		if snap != nil {
			s.st = fromSnapshot(snap)
		}
	}
}

type Store struct {
	mu       sync.RWMutex
	st       *state
	onCommit CommitFunc
}

func New(opts ...Option) *Store {
	s := &Store{st: newState()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping reports whether the store can serve requests.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.snapshot()
}

func (s *Store) Patients() patient.Repository     { return &patientRepo{s} }
func (s *Store) Phases() phase.Repository         { return &phaseRepo{s} }
func (s *Store) Drugs() drug.Repository           { return &drugRepo{s} }
func (s *Store) Events() timeline.EventRepository { return &eventRepo{s} }
func (s *Store) Articles() knowledge.Repository   { return &articleRepo{s} }

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) mutate(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	if s.onCommit != nil {
		if err := s.onCommit(ctx, next.snapshot()); err != nil {
			return err
		}
	}
	s.st = next
	return nil
}

type state struct {
	patients map[uuid.UUID]*patient.Patient
	phases   []*phase.TreatmentPhase
	drugs    []*drug.Drug
	events   map[uuid.UUID]*timeline.TimelineEvent
	articles []*knowledge.Article
	seq      int64
}

func newState() *state {
	return &state{
		patients: make(map[uuid.UUID]*patient.Patient),
		events:   make(map[uuid.UUID]*timeline.TimelineEvent),
	}
}

func (st *state) nextSeq() int64 {
	st.seq++
	return st.seq
}

// clone copies the containers. Records are treated as immutable once stored
// and are replaced, never edited, so they can be shared.
func (st *state) clone() *state {
	c := &state{
		patients: make(map[uuid.UUID]*patient.Patient, len(st.patients)),
		phases:   append([]*phase.TreatmentPhase(nil), st.phases...),
		drugs:    append([]*drug.Drug(nil), st.drugs...),
		events:   make(map[uuid.UUID]*timeline.TimelineEvent, len(st.events)),
		articles: append([]*knowledge.Article(nil), st.articles...),
		seq:      st.seq,
	}
	for k, v := range st.patients {
		c.patients[k] = v
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	return c
}

func (st *state) phase(id uuid.UUID) *phase.TreatmentPhase {
	for _, p := range st.phases {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (st *state) drug(id uuid.UUID) *drug.Drug {
	for _, d := range st.drugs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (st *state) article(id uuid.UUID) *knowledge.Article {
	for _, a := range st.articles {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// sortedDrugs orders by name case-insensitively, then by name, keeping
// insertion order for equal names.
func (st *state) sortedDrugs() []*drug.Drug {
	out := append([]*drug.Drug(nil), st.drugs...)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
