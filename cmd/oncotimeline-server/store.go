package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/oncotimeline/oncotimeline/internal/config"
	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/memstore"
	"github.com/oncotimeline/oncotimeline/internal/platform/seed"
	"github.com/oncotimeline/oncotimeline/internal/platform/sqlitestore"
	"github.com/oncotimeline/oncotimeline/migrations"
)

// backend is the set of repositories for the configured STORE_DRIVER.
type backend struct {
	driver   string
	patients patient.Repository
	phases   phase.Repository
	drugs    drug.Repository
	events   timeline.EventRepository
	articles knowledge.Repository
	pinger   db.Pinger
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		st := memstore.New()
		logger.Info().Str("driver", cfg.StoreDriver).Msg("using in-memory store")
		return memoryBackend(cfg.StoreDriver, st, st, func() {}), nil

	case config.DriverSQLite:
		st, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.StoreDriver).Str("path", st.Path()).Msg("opened sqlite store")
		return memoryBackend(cfg.StoreDriver, st.Store, st, func() { _ = st.Close() }), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.StoreDriver).Str("schema", cfg.DBSchema).Msg("connected to database")

		if cfg.AutoMigrate {
			n, err := db.NewMigrator(pool, migrations.FS).Up(ctx, cfg.DBSchema)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			logger.Info().Int("applied", n).Msg("migrations up to date")
		}

		return &backend{
			driver:   cfg.StoreDriver,
			patients: patient.NewRepoPG(pool),
			phases:   phase.NewRepoPG(pool),
			drugs:    drug.NewRepoPG(pool),
			events:   timeline.NewEventRepoPG(pool),
			articles: knowledge.NewRepoPG(pool),
			pinger:   pool,
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func memoryBackend(driver string, st *memstore.Store, pinger db.Pinger, closeFn func()) *backend {
	return &backend{
		driver:   driver,
		patients: st.Patients(),
		phases:   st.Phases(),
		drugs:    st.Drugs(),
		events:   st.Events(),
		articles: st.Articles(),
		pinger:   pinger,
		close:    closeFn,
	}
}

func (b *backend) services() seed.Services {
	return seed.Services{
		Patients:  patient.NewService(b.patients),
		Phases:    phase.NewService(b.phases),
		Drugs:     drug.NewService(b.drugs),
		Timeline:  timeline.NewService(b.events),
		Knowledge: knowledge.NewService(b.articles),
	}
}

func seedSource(ctx context.Context, cfg *config.Config, location string) (seed.Source, error) {
	return seed.Open(ctx, location, seed.S3Config{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		PathStyle:       cfg.S3PathStyle,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}
