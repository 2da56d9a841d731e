package phase

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type phaseRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &phaseRepoPG{pool: pool}
}

func (r *phaseRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const phaseCols = `id, seq, patient_id, name, description, start_date, end_date, display_order, color`

func (r *phaseRepoPG) scanRow(row pgx.Row) (*TreatmentPhase, error) {
	var p TreatmentPhase
	err := row.Scan(&p.ID, &p.Seq, &p.PatientID, &p.Name, &p.Description,
		&p.StartDate, &p.EndDate, &p.DisplayOrder, &p.Color)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	return &p, nil
}

func (r *phaseRepoPG) Create(ctx context.Context, p *TreatmentPhase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatment_phase (id, patient_id, name, description, start_date, end_date, display_order, color)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING seq`,
		p.ID, p.PatientID, p.Name, p.Description, p.StartDate, p.EndDate, p.DisplayOrder, p.Color).
		Scan(&p.Seq)
	return storage.FromPG(err)
}

func (r *phaseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentPhase, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+phaseCols+` FROM treatment_phase WHERE id = $1`, id))
}

func (r *phaseRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPhase, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+phaseCols+` FROM treatment_phase
		WHERE patient_id = $1
		ORDER BY display_order, seq`, patientID)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	defer rows.Close()
	items := []*TreatmentPhase{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, storage.FromPG(rows.Err())
}
