package memory

import (
	"context"

	"github.com/convowin/convowin/internal/domain/billingplan"
)

type resourceStore struct {
	*Store[billingplan.Resources]
}

// NewResourceRepository creates an in-memory tenant resource repository
func NewResourceRepository() billingplan.ResourceRepository {
	return &resourceStore{Store: NewStore[billingplan.Resources]()}
}

func (s *resourceStore) GetResources(ctx context.Context, tenantID string) (*billingplan.Resources, error) {
	res, err := s.Store.Get(ctx, tenantID)
	if err != nil {
		return &billingplan.Resources{}, nil
	}
	return &res, nil
}

func (s *resourceStore) SetResources(ctx context.Context, tenantID string, resources *billingplan.Resources) error {
	s.Store.Put(ctx, tenantID, *resources)
	return nil
}
