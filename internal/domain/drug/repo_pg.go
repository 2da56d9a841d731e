package drug

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type drugRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &drugRepoPG{pool: pool}
}

func (r *drugRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const drugCols = `id, name, drug_class, mechanism_of_action, why_used_in_leukemia,
	parent_friendly_explanation, typical_onset_timing, duration_of_effects,
	expected_lab_changes, neurological_impacts, typical_timeline, monitoring_reason,
	common_but_not_dangerous, blood_count_pattern, is_currently_relevant,
	created_at, updated_at`

func (r *drugRepoPG) scanRow(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.ID, &d.Name, &d.DrugClass, &d.MechanismOfAction, &d.WhyUsedInLeukemia,
		&d.ParentFriendlyExplanation, &d.TypicalOnsetTiming, &d.DurationOfEffects,
		&d.ExpectedLabChanges, &d.NeurologicalImpacts, &d.TypicalTimeline, &d.MonitoringReason,
		&d.CommonButNotDangerous, &d.BloodCountPattern, &d.IsCurrentlyRelevant,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	d.SideEffects = []*SideEffect{}
	return &d, nil
}

func (r *drugRepoPG) Create(ctx context.Context, d *Drug) error {
	now := time.Now().UTC()
	d.ID = uuid.New()
	d.CreatedAt = now
	d.UpdatedAt = now
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO drug (`+drugCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
			d.ID, d.Name, d.DrugClass, d.MechanismOfAction, d.WhyUsedInLeukemia,
			d.ParentFriendlyExplanation, d.TypicalOnsetTiming, d.DurationOfEffects,
			d.ExpectedLabChanges, d.NeurologicalImpacts, d.TypicalTimeline, d.MonitoringReason,
			d.CommonButNotDangerous, d.BloodCountPattern, d.IsCurrentlyRelevant,
			d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return storage.FromPG(err)
		}
		for i, se := range d.SideEffects {
			se.ID = uuid.New()
			se.DrugID = d.ID
			_, err := r.conn(ctx).Exec(ctx, `
				INSERT INTO drug_side_effect (id, drug_id, position, effect_name, severity, description, typical_onset)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				se.ID, se.DrugID, i, se.EffectName, se.Severity, se.Description, se.TypicalOnset)
			if err != nil {
				return storage.FromPG(err)
			}
		}
		return nil
	})
}

func (r *drugRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Drug, error) {
	d, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+drugCols+` FROM drug WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSideEffects(ctx, []*Drug{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *drugRepoPG) GetByName(ctx context.Context, name string) (*Drug, error) {
	d, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `
		SELECT `+drugCols+` FROM drug
		WHERE LOWER(name) = LOWER($1)
		ORDER BY name, created_at
		LIMIT 1`, name))
	if err != nil {
		return nil, err
	}
	if err := r.loadSideEffects(ctx, []*Drug{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *drugRepoPG) List(ctx context.Context) ([]*Drug, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+drugCols+` FROM drug ORDER BY LOWER(name), name, created_at`)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	items := []*Drug{}
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storage.FromPG(err)
	}
	if err := r.loadSideEffects(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadSideEffects fills SideEffects for every drug with one query.
func (r *drugRepoPG) loadSideEffects(ctx context.Context, drugs []*Drug) error {
	if len(drugs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Drug, len(drugs))
	ids := make([]uuid.UUID, 0, len(drugs))
	for _, d := range drugs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, drug_id, effect_name, severity, description, typical_onset
		FROM drug_side_effect
		WHERE drug_id = ANY($1)
		ORDER BY drug_id, position`, ids)
	if err != nil {
		return storage.FromPG(err)
	}
	defer rows.Close()
	for rows.Next() {
		var se SideEffect
		if err := rows.Scan(&se.ID, &se.DrugID, &se.EffectName, &se.Severity, &se.Description, &se.TypicalOnset); err != nil {
			return storage.FromPG(err)
		}
		if d, ok := byID[se.DrugID]; ok {
			d.SideEffects = append(d.SideEffects, &se)
		}
	}
	return storage.FromPG(rows.Err())
}
