package knowledge

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type articleRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &articleRepoPG{pool: pool}
}

func (r *articleRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const articleCols = `id, title, category, audience, content, summary, is_ai_generated,
	disclaimer, generated_at, last_updated`

func (r *articleRepoPG) scanRow(row pgx.Row) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.Category, &a.Audience, &a.Content, &a.Summary,
		&a.IsAIGenerated, &a.Disclaimer, &a.GeneratedAt, &a.LastUpdated)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	return &a, nil
}

func (r *articleRepoPG) Create(ctx context.Context, a *Article) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO knowledge_article (`+articleCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Title, a.Category, a.Audience, a.Content, a.Summary,
		a.IsAIGenerated, a.Disclaimer, a.GeneratedAt, a.LastUpdated)
	return storage.FromPG(err)
}

func (r *articleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+articleCols+` FROM knowledge_article WHERE id = $1`, id))
}

func (r *articleRepoPG) List(ctx context.Context) ([]*Article, error) {
	return r.query(ctx, `SELECT `+articleCols+` FROM knowledge_article ORDER BY title, generated_at`)
}

func (r *articleRepoPG) ListByCategory(ctx context.Context, category string) ([]*Article, error) {
	return r.query(ctx, `SELECT `+articleCols+` FROM knowledge_article WHERE category = $1 ORDER BY title, generated_at`, category)
}

func (r *articleRepoPG) ListByAudience(ctx context.Context, audience string) ([]*Article, error) {
	return r.query(ctx, `SELECT `+articleCols+` FROM knowledge_article WHERE audience = $1 ORDER BY title, generated_at`, audience)
}

func (r *articleRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Article, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, storage.FromPG(err)
	}
	defer rows.Close()
	items := []*Article{}
	for rows.Next() {
		a, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, storage.FromPG(rows.Err())
}
