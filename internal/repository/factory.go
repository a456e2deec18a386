package repository

import (
	"context"

	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	"github.com/convowin/convowin/internal/domain/ratecard"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/migration"
	"github.com/convowin/convowin/internal/postgres"
	memoryRepo "github.com/convowin/convowin/internal/repository/memory"
	postgresRepo "github.com/convowin/convowin/internal/repository/postgres"
	"github.com/convowin/convowin/internal/types"
	"go.uber.org/fx"
)

// NewDB opens postgres when it is the storage backend. The memory backend gets a nil DB.
func NewDB(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	if cfg.Storage.Backend != types.StorageBackendPostgres {
		return nil, nil
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if cfg.Postgres.AutoMigrate {
				log.Info("applying database migrations")
				return migration.Up(db.DB.DB)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// NewTxClient returns the transaction boundary of the configured backend
func NewTxClient(cfg *config.Configuration, db *postgres.DB) postgres.IClient {
	if usePostgres(cfg, db) {
		return db
	}
	return memoryRepo.NewTxClient()
}

func NewRateCardRepository(cfg *config.Configuration, db *postgres.DB, logger *logger.Logger) ratecard.Repository {
	if usePostgres(cfg, db) {
		return postgresRepo.NewRateCardRepository(db, logger)
	}
	return memoryRepo.NewRateCardRepository()
}

func NewBillingPlanRepository(cfg *config.Configuration, db *postgres.DB, logger *logger.Logger) billingplan.Repository {
	if usePostgres(cfg, db) {
		return postgresRepo.NewBillingPlanRepository(db, logger)
	}
	return memoryRepo.NewBillingPlanRepository()
}

func NewResourceRepository(cfg *config.Configuration, db *postgres.DB, logger *logger.Logger) billingplan.ResourceRepository {
	if usePostgres(cfg, db) {
		return postgresRepo.NewResourceRepository(db, logger)
	}
	return memoryRepo.NewResourceRepository()
}

func NewInvoiceRepository(cfg *config.Configuration, db *postgres.DB, logger *logger.Logger) invoice.Repository {
	if usePostgres(cfg, db) {
		return postgresRepo.NewInvoiceRepository(db, logger)
	}
	return memoryRepo.NewInvoiceRepository()
}

func usePostgres(cfg *config.Configuration, db *postgres.DB) bool {
	return cfg.Storage.Backend == types.StorageBackendPostgres && db != nil
}

// Module provides the database handle, transaction client and repositories
var Module = fx.Options(
	fx.Provide(
		NewDB,
		NewTxClient,
		NewRateCardRepository,
		NewBillingPlanRepository,
		NewResourceRepository,
		NewInvoiceRepository,
	),
)
