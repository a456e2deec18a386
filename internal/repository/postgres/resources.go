package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/postgres"
)

type resourceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewResourceRepository creates a new instance of tenant resource repository
func NewResourceRepository(db *postgres.DB, logger *logger.Logger) billingplan.ResourceRepository {
	return &resourceRepository{
		db:     db,
		logger: logger,
	}
}

// GetResources returns zero counts for a tenant that never reported any
func (r *resourceRepository) GetResources(ctx context.Context, tenantID string) (*billingplan.Resources, error) {
	query := `SELECT active_templates, active_flows FROM tenant_resources WHERE tenant_id = $1`

	var res billingplan.Resources
	err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, tenantID).Scan(&res.ActiveTemplates, &res.ActiveFlows)
	if errors.Is(err, sql.ErrNoRows) {
		return &billingplan.Resources{}, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get tenant resources").
			Mark(ierr.ErrDatabase)
	}
	return &res, nil
}

func (r *resourceRepository) SetResources(ctx context.Context, tenantID string, resources *billingplan.Resources) error {
	query := `
		INSERT INTO tenant_resources (tenant_id, active_templates, active_flows, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			active_templates = EXCLUDED.active_templates,
			active_flows = EXCLUDED.active_flows,
			updated_at = EXCLUDED.updated_at`

	r.logger.Debugw("setting tenant resources",
		"tenant_id", tenantID,
		"active_templates", resources.ActiveTemplates,
		"active_flows", resources.ActiveFlows,
	)

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		tenantID, int64(resources.ActiveTemplates), int64(resources.ActiveFlows))
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to set tenant resources").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
