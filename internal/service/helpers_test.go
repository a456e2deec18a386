package service

import (
	"context"
	"errors"
	"time"

	"github.com/convowin/convowin/internal/testutil"
)

func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetClock(),
		s.GetCache(),
		s.GetRegion(),
		s.GetMetrics(),
		stores.RateCardRepo,
		stores.BillingPlanRepo,
		stores.ResourceRepo,
		stores.InvoiceRepo,
	)
}

// brokenCache fails every call, like an unreachable redis
type brokenCache struct{}

var errCacheDown = errors.New("connection refused")

func (brokenCache) Exists(context.Context, string) (bool, error) { return false, errCacheDown }

func (brokenCache) Add(context.Context, string, interface{}, time.Duration) (bool, error) {
	return false, errCacheDown
}

func (brokenCache) Delete(context.Context, string) error { return errCacheDown }

func (brokenCache) Flush(context.Context) error { return errCacheDown }
