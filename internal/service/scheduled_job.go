package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Job names, also used as metric labels
const (
	JobDailyReset         = "daily_reset"
	JobMonthlyReset       = "monthly_reset"
	JobInvoiceGeneration  = "invoice_generation"
	JobOverdueInvoiceScan = "overdue_sweep"
)

// ScheduledJobService runs the periodic batch jobs over every tenant. A failing
// tenant is recorded and never stops the rest of the batch.
type ScheduledJobService interface {
	RunDailyReset(ctx context.Context) (*dto.JobResponse, error)
	RunMonthlyReset(ctx context.Context) (*dto.JobResponse, error)

	// RunInvoiceGeneration invoices period, the previous month when nil
	RunInvoiceGeneration(ctx context.Context, period *types.BillingPeriod) (*dto.JobResponse, error)

	// RunOverdueSweep marks pending invoices past their due date as overdue
	RunOverdueSweep(ctx context.Context) (*dto.JobResponse, error)
}

type scheduledJobService struct {
	ServiceParams
	usage    UsageService
	invoices InvoiceService
}

func NewScheduledJobService(params ServiceParams, usage UsageService, invoices InvoiceService) ScheduledJobService {
	return &scheduledJobService{
		ServiceParams: params,
		usage:         usage,
		invoices:      invoices,
	}
}

// outcome of one unit of a batch
type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeSkipped
)

func (s *scheduledJobService) RunDailyReset(ctx context.Context) (*dto.JobResponse, error) {
	return s.forEachTenant(ctx, JobDailyReset, func(ctx context.Context, tenantID string) (outcome, error) {
		reset, err := s.usage.ResetDaily(ctx, tenantID)
		if err != nil {
			return 0, err
		}
		return lo.Ternary(reset, outcomeSucceeded, outcomeSkipped), nil
	})
}

func (s *scheduledJobService) RunMonthlyReset(ctx context.Context) (*dto.JobResponse, error) {
	return s.forEachTenant(ctx, JobMonthlyReset, func(ctx context.Context, tenantID string) (outcome, error) {
		reset, err := s.usage.ResetMonthly(ctx, tenantID)
		if err != nil {
			return 0, err
		}
		return lo.Ternary(reset, outcomeSucceeded, outcomeSkipped), nil
	})
}

func (s *scheduledJobService) RunInvoiceGeneration(ctx context.Context, period *types.BillingPeriod) (*dto.JobResponse, error) {
	target := types.PreviousBillingPeriod(s.Clock.Now())
	if period != nil {
		target = *period
	}
	if s.Clock.Now().Before(target.End()) {
		return nil, ierr.WithError(invoice.ErrPeriodNotEnded).
			WithHintf("Billing period %s has not ended yet", target).
			Mark(ierr.ErrInvalidOperation)
	}
	s.Logger.WithContext(ctx).Infow("generating invoices", "billing_period", target.String())

	return s.forEachTenant(ctx, JobInvoiceGeneration, func(ctx context.Context, tenantID string) (outcome, error) {
		_, err := s.invoices.GenerateInvoice(ctx, tenantID, target)
		switch {
		case err == nil:
			return outcomeSucceeded, nil
		case ierr.Is(err, invoice.ErrDuplicateInvoice), ierr.Is(err, invoice.ErrNothingToInvoice):
			s.Logger.WithContext(ctx).Infow("invoice skipped",
				"tenant_id", tenantID,
				"billing_period", target.String(),
				"reason", err.Error())
			return outcomeSkipped, nil
		default:
			return 0, err
		}
	})
}

func (s *scheduledJobService) RunOverdueSweep(ctx context.Context) (*dto.JobResponse, error) {
	now := s.Clock.Now()
	due, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		Statuses:  []types.InvoiceStatus{types.InvoiceStatusPending},
		DueBefore: &now,
	})
	if err != nil {
		return nil, err
	}

	byID := lo.SliceToMap(due, func(inv *invoice.Invoice) (string, *invoice.Invoice) {
		return inv.ID, inv
	})
	ids := lo.Keys(byID)
	sort.Strings(ids)

	return s.run(ctx, JobOverdueInvoiceScan, ids, func(ctx context.Context, id string) (outcome, error) {
		err := s.InvoiceRepo.UpdateStatus(ctx, id, types.InvoiceStatusPending, types.InvoiceStatusOverdue, now)
		if ierr.Is(err, invoice.ErrInvalidStatusTransition) {
			// paid or canceled since it was listed
			return outcomeSkipped, nil
		}
		if err != nil {
			return 0, err
		}
		return outcomeSucceeded, nil
	}, func(id string) string {
		return byID[id].TenantID
	})
}

func (s *scheduledJobService) forEachTenant(
	ctx context.Context,
	job string,
	fn func(ctx context.Context, tenantID string) (outcome, error),
) (*dto.JobResponse, error) {
	tenantIDs, err := s.BillingPlanRepo.ListTenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, job, tenantIDs, fn, func(id string) string { return id })
}

// run fans fn out over ids on a bounded pool. Errors and panics are recorded
// against the tenant that owns the id.
func (s *scheduledJobService) run(
	ctx context.Context,
	job string,
	ids []string,
	fn func(ctx context.Context, id string) (outcome, error),
	tenantOf func(id string) string,
) (*dto.JobResponse, error) {
	start := time.Now()
	defer s.Metrics.ObserveJob(job, start)

	log := s.Logger.WithContext(ctx)
	result := &dto.JobResponse{
		Job:    job,
		Total:  len(ids),
		Errors: []dto.TenantError{},
	}

	var mu sync.Mutex
	record := func(id string, o outcome, err error) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, dto.TenantError{TenantID: tenantOf(id), Error: err.Error()})
			s.Metrics.JobTenant(job, metrics.OutcomeFailed)
			log.Errorw("batch job failed for tenant",
				"job", job,
				"tenant_id", tenantOf(id),
				"id", id,
				"error", err)
		case o == outcomeSkipped:
			result.Skipped++
			s.Metrics.JobTenant(job, metrics.OutcomeSkipped)
		default:
			result.Succeeded++
			s.Metrics.JobTenant(job, metrics.OutcomeSucceeded)
		}
	}

	p := pool.New().WithMaxGoroutines(lo.Max([]int{s.Config.Billing.BatchConcurrency, 1}))
	for _, id := range ids {
		id := id
		p.Go(func() {
			if ctx.Err() != nil {
				record(id, 0, ctx.Err())
				return
			}

			var (
				o      outcome
				runErr error
				pc     panics.Catcher
			)
			pc.Try(func() {
				o, runErr = fn(types.SetTenantID(ctx, tenantOf(id)), id)
			})
			if r := pc.Recovered(); r != nil {
				runErr = ierr.WithError(r.AsError()).
					WithHint("The job panicked for this tenant").
					Mark(ierr.ErrSystem)
			}
			record(id, o, runErr)
		})
	}
	p.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].TenantID < result.Errors[j].TenantID
	})

	log.Infow("batch job finished",
		"job", job,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", time.Since(start))
	return result, nil
}
