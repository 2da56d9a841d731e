package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewEventRepoPG(pool *pgxpool.Pool) EventRepository {
	return &eventRepoPG{pool: pool}
}

func (r *eventRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const eventCols = `id, seq, patient_id, treatment_phase_id, title, event_date, category, notes, tags,
	created_at, updated_at`

func (r *eventRepoPG) scanRow(row pgx.Row) (*TimelineEvent, error) {
	var e TimelineEvent
	err := row.Scan(&e.ID, &e.Seq, &e.PatientID, &e.TreatmentPhaseID, &e.Title, &e.EventDate,
		&e.Category, &e.Notes, &e.Tags, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	e.Drugs = []*TimelineEventDrug{}
	return &e, nil
}

func (r *eventRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TimelineEvent, error) {
	e, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+eventCols+` FROM timeline_event WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadDrugs(ctx, []*TimelineEvent{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TimelineEvent, error) {
	return r.list(ctx, `
		SELECT `+eventCols+` FROM timeline_event
		WHERE patient_id = $1
		ORDER BY event_date, seq`, patientID)
}

func (r *eventRepoPG) ListByDateRange(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*TimelineEvent, error) {
	if start.After(end) {
		return []*TimelineEvent{}, nil
	}
	return r.list(ctx, `
		SELECT `+eventCols+` FROM timeline_event
		WHERE patient_id = $1 AND event_date >= $2 AND event_date <= $3
		ORDER BY event_date, seq`, patientID, start, end)
}

func (r *eventRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*TimelineEvent, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	items := []*TimelineEvent{}
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storage.FromPG(err)
	}
	if err := r.loadDrugs(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *eventRepoPG) Create(ctx context.Context, e *TimelineEvent) error {
	now := time.Now().UTC()
	e.ID = uuid.New()
	e.CreatedAt = now
	e.UpdatedAt = now
	for _, a := range e.Drugs {
		a.TimelineEventID = e.ID
	}
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO timeline_event (id, patient_id, treatment_phase_id, title, event_date, category, notes, tags, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING seq`,
			e.ID, e.PatientID, e.TreatmentPhaseID, e.Title, e.EventDate, e.Category, e.Notes, e.Tags,
			e.CreatedAt, e.UpdatedAt).Scan(&e.Seq)
		if err != nil {
			return storage.FromPG(err)
		}
		if err := r.insertDrugs(ctx, e); err != nil {
			return err
		}
		return r.loadDrugs(ctx, []*TimelineEvent{e})
	})
}

func (r *eventRepoPG) Update(ctx context.Context, e *TimelineEvent) error {
	e.UpdatedAt = time.Now().UTC()
	for _, a := range e.Drugs {
		a.TimelineEventID = e.ID
	}
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			UPDATE timeline_event
			SET title = $2, event_date = $3, category = $4, notes = $5, tags = $6, updated_at = $7
			WHERE id = $1
			RETURNING seq, patient_id, treatment_phase_id, created_at`,
			e.ID, e.Title, e.EventDate, e.Category, e.Notes, e.Tags, e.UpdatedAt).
			Scan(&e.Seq, &e.PatientID, &e.TreatmentPhaseID, &e.CreatedAt)
		if err != nil {
			return storage.FromPG(err)
		}
		if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM timeline_event_drug WHERE timeline_event_id = $1`, e.ID); err != nil {
			return storage.FromPG(err)
		}
		if err := r.insertDrugs(ctx, e); err != nil {
			return err
		}
		return r.loadDrugs(ctx, []*TimelineEvent{e})
	})
}

func (r *eventRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM timeline_event WHERE id = $1`, id)
	return storage.FromPG(err)
}

func (r *eventRepoPG) insertDrugs(ctx context.Context, e *TimelineEvent) error {
	for i, a := range e.Drugs {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO timeline_event_drug (timeline_event_id, drug_id, position, dosage, route)
			VALUES ($1,$2,$3,$4,$5)`,
			e.ID, a.DrugID, i, a.Dosage, a.Route)
		if err != nil {
			return storage.FromPG(err)
		}
	}
	return nil
}

// loadDrugs replaces the associations of every event with the stored rows,
// joined to their drug, in one query.
func (r *eventRepoPG) loadDrugs(ctx context.Context, events []*TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*TimelineEvent, len(events))
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		e.Drugs = []*TimelineEventDrug{}
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ted.timeline_event_id, ted.drug_id, ted.dosage, ted.route,
			d.name, d.drug_class, d.mechanism_of_action, d.why_used_in_leukemia,
			d.parent_friendly_explanation, d.typical_onset_timing, d.duration_of_effects,
			d.expected_lab_changes, d.neurological_impacts, d.typical_timeline, d.monitoring_reason,
			d.common_but_not_dangerous, d.blood_count_pattern, d.is_currently_relevant,
			d.created_at, d.updated_at
		FROM timeline_event_drug ted
		JOIN drug d ON d.id = ted.drug_id
		WHERE ted.timeline_event_id = ANY($1)
		ORDER BY ted.timeline_event_id, ted.position`, ids)
	if err != nil {
		return storage.FromPG(err)
	}
	defer rows.Close()
	for rows.Next() {
		var a TimelineEventDrug
		var d drug.Drug
		err := rows.Scan(&a.TimelineEventID, &a.DrugID, &a.Dosage, &a.Route,
			&d.Name, &d.DrugClass, &d.MechanismOfAction, &d.WhyUsedInLeukemia,
			&d.ParentFriendlyExplanation, &d.TypicalOnsetTiming, &d.DurationOfEffects,
			&d.ExpectedLabChanges, &d.NeurologicalImpacts, &d.TypicalTimeline, &d.MonitoringReason,
			&d.CommonButNotDangerous, &d.BloodCountPattern, &d.IsCurrentlyRelevant,
			&d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return storage.FromPG(err)
		}
		d.ID = a.DrugID
		a.Drug = &d
		if e, ok := byID[a.TimelineEventID]; ok {
			e.Drugs = append(e.Drugs, &a)
		}
	}
	return storage.FromPG(rows.Err())
}
