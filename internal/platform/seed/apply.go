package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

// Services are the write paths a seed document goes through.
type Services struct {
	Patients  *patient.Service
	Phases    *phase.Service
	Drugs     *drug.Service
	Timeline  *timeline.Service
	Knowledge *knowledge.Service
}

// Result counts what Apply created and what it found already present.
type Result struct {
	DrugsCreated    int
	DrugsSkipped    int
	PatientsCreated int
	PatientsSkipped int
	PhasesCreated   int
	EventsCreated   int
	ArticlesCreated int
	ArticlesSkipped int
}

type Seeder struct {
	svc    Services
	logger zerolog.Logger
}

func New(svc Services, logger zerolog.Logger) *Seeder {
	return &Seeder{svc: svc, logger: logger}
}

// Load reads and parses the document from src, then applies it.
func (s *Seeder) Load(ctx context.Context, src Source) (Result, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	doc, err := Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", src, err)
	}
	res, err := s.Apply(ctx, doc)
	if err != nil {
		return res, err
	}
	s.logger.Info().
		Str("source", src.String()).
		Int("drugs_created", res.DrugsCreated).
		Int("drugs_skipped", res.DrugsSkipped).
		Int("patients_created", res.PatientsCreated).
		Int("patients_skipped", res.PatientsSkipped).
		Int("phases_created", res.PhasesCreated).
		Int("events_created", res.EventsCreated).
		Int("articles_created", res.ArticlesCreated).
		Int("articles_skipped", res.ArticlesSkipped).
		Msg("seed applied")
	return res, nil
}

// Apply writes doc through the services. It is idempotent: drugs are
// matched by name, patients by id and articles by title, and anything
// already present is left untouched. A skipped patient skips its phases
// and events as well.
func (s *Seeder) Apply(ctx context.Context, doc *Document) (Result, error) {
	var res Result

	drugIDs, err := s.applyDrugs(ctx, doc.Drugs, &res)
	if err != nil {
		return res, err
	}
	for _, p := range doc.Patients {
		if err := s.applyPatient(ctx, p, drugIDs, &res); err != nil {
			return res, err
		}
	}
	if err := s.applyArticles(ctx, doc.Articles, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Seeder) applyDrugs(ctx context.Context, drugs []Drug, res *Result) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(drugs))
	for _, in := range drugs {
		existing, err := s.svc.Drugs.GetDrugByName(ctx, in.Name)
		switch {
		case err == nil:
			ids[nameKey(in.Name)] = existing.ID
			res.DrugsSkipped++
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("seed drug %q: %w", in.Name, err)
		}

		d := toDrug(in)
		if err := s.svc.Drugs.CreateDrug(ctx, d); err != nil {
			return nil, fmt.Errorf("seed drug %q: %w", in.Name, err)
		}
		ids[nameKey(in.Name)] = d.ID
		res.DrugsCreated++
	}
	return ids, nil
}

func (s *Seeder) applyPatient(ctx context.Context, in Patient, drugIDs map[string]uuid.UUID, res *Result) error {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		return fmt.Errorf("seed patient %q: %w", in.ID, err)
	}
	_, err = s.svc.Patients.GetPatient(ctx, id)
	switch {
	case err == nil:
		res.PatientsSkipped++
		s.logger.Debug().Str("patient_id", id.String()).Msg("seed patient already present")
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("seed patient %s: %w", id, err)
	}

	p := &patient.Patient{
		ID:            id,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		DateOfBirth:   in.DateOfBirth,
		DiagnosisDate: in.DiagnosisDate,
		DiagnosisType: in.DiagnosisType,
		RiskCategory:  in.RiskCategory,
	}
	if err := s.svc.Patients.CreatePatient(ctx, p); err != nil {
		return fmt.Errorf("seed patient %s: %w", id, err)
	}
	res.PatientsCreated++

	phaseIDs := make(map[string]uuid.UUID, len(in.Phases))
	for _, ph := range in.Phases {
		tp := &phase.TreatmentPhase{
			PatientID:    id,
			Name:         ph.Name,
			Description:  ph.Description,
			StartDate:    ph.StartDate,
			EndDate:      ph.EndDate,
			DisplayOrder: ph.DisplayOrder,
			Color:        ph.Color,
		}
		if err := s.svc.Phases.CreatePhase(ctx, tp); err != nil {
			return fmt.Errorf("seed phase %q for patient %s: %w", ph.Name, id, err)
		}
		phaseIDs[nameKey(ph.Name)] = tp.ID
		res.PhasesCreated++
	}

	for _, ev := range in.Events {
		input := timeline.CreateEventInput{
			PatientID: id,
			Title:     ev.Title,
			EventDate: ev.Date,
			Category:  ev.Category,
			Notes:     ev.Notes,
			Tags:      ev.Tags,
		}
		if ev.Phase != "" {
			phaseID := phaseIDs[nameKey(ev.Phase)]
			input.TreatmentPhaseID = &phaseID
		}
		for _, ed := range ev.Drugs {
			drugID, err := s.resolveDrug(ctx, ed.Name, drugIDs)
			if err != nil {
				return fmt.Errorf("seed event %q: %w", ev.Title, err)
			}
			input.Drugs = append(input.Drugs, timeline.DrugInput{DrugID: drugID, Dosage: ed.Dosage, Route: ed.Route})
		}
		if _, err := s.svc.Timeline.CreateEvent(ctx, input); err != nil {
			return fmt.Errorf("seed event %q: %w", ev.Title, err)
		}
		res.EventsCreated++
	}
	return nil
}

// resolveDrug looks a drug up among those seeded in this run first, then in
// the catalog.
func (s *Seeder) resolveDrug(ctx context.Context, name string, seeded map[string]uuid.UUID) (uuid.UUID, error) {
	if id, ok := seeded[nameKey(name)]; ok {
		return id, nil
	}
	d, err := s.svc.Drugs.GetDrugByName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	seeded[nameKey(name)] = d.ID
	return d.ID, nil
}

func (s *Seeder) applyArticles(ctx context.Context, articles []Article, res *Result) error {
	if len(articles) == 0 {
		return nil
	}
	existing, err := s.svc.Knowledge.ListArticles(ctx)
	if err != nil {
		return fmt.Errorf("seed articles: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, a := range existing {
		titles[nameKey(a.Title)] = true
	}

	for _, in := range articles {
		if titles[nameKey(in.Title)] {
			res.ArticlesSkipped++
			continue
		}
		a := &knowledge.Article{
			Title:         in.Title,
			Category:      in.Category,
			Audience:      in.Audience,
			Content:       in.Content,
			Summary:       in.Summary,
			IsAIGenerated: in.IsAIGenerated,
			Disclaimer:    in.Disclaimer,
		}
		if err := s.svc.Knowledge.CreateArticle(ctx, a); err != nil {
			return fmt.Errorf("seed article %q: %w", in.Title, err)
		}
		titles[nameKey(in.Title)] = true
		res.ArticlesCreated++
	}
	return nil
}

func toDrug(in Drug) *drug.Drug {
	d := &drug.Drug{
		Name:                      in.Name,
		DrugClass:                 in.DrugClass,
		MechanismOfAction:         in.MechanismOfAction,
		WhyUsedInLeukemia:         in.WhyUsedInLeukemia,
		ParentFriendlyExplanation: in.ParentFriendlyExplanation,
		TypicalOnsetTiming:        in.TypicalOnsetTiming,
		DurationOfEffects:         in.DurationOfEffects,
		ExpectedLabChanges:        in.ExpectedLabChanges,
		NeurologicalImpacts:       in.NeurologicalImpacts,
		TypicalTimeline:           in.TypicalTimeline,
		MonitoringReason:          in.MonitoringReason,
		CommonButNotDangerous:     in.CommonButNotDangerous,
		BloodCountPattern:         in.BloodCountPattern,
		IsCurrentlyRelevant:       in.IsCurrentlyRelevant,
	}
	for _, se := range in.SideEffects {
		d.SideEffects = append(d.SideEffects, &drug.SideEffect{
			EffectName:   se.Name,
			Severity:     se.Severity,
			Description:  se.Description,
			TypicalOnset: se.TypicalOnset,
		})
	}
	return d
}
