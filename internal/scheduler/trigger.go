package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/convowin/convowin/internal/clock"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/service"
	"github.com/convowin/convowin/internal/types"
	"go.uber.org/fx"
)

const (
	dayLayout   = "2006-01-02"
	defaultTick = time.Hour
)

// Trigger runs the usage and invoice jobs in process. It wakes up every
// interval and runs whatever job has not run yet for the current day or month,
// so a restart or a missed tick only delays a job.
type Trigger struct {
	cfg    config.SchedulerConfig
	jobs   service.ScheduledJobService
	clock  clock.Clock
	logger *logger.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// markers of the last successful run
	lastDailyReset   string
	lastMonthlyReset string
	lastInvoiced     string
	lastOverdueSweep string
}

func NewTrigger(cfg *config.Configuration, jobs service.ScheduledJobService, clk clock.Clock, logger *logger.Logger) *Trigger {
	return &Trigger{
		cfg:    cfg.Scheduler,
		jobs:   jobs,
		clock:  clk,
		logger: logger,
	}
}

// RegisterWithLifecycle starts the trigger with the application and stops it on shutdown
func (t *Trigger) RegisterWithLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// the start context is cancelled once startup completes
			return t.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			return t.Stop(ctx)
		},
	})
}

func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = true
	t.mu.Unlock()

	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Infow("scheduler trigger started",
		"interval", t.interval(),
		"invoice_day_of_month", t.cfg.InvoiceDayOfMonth,
	)
	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("scheduler trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) interval() time.Duration {
	if t.cfg.Interval <= 0 {
		return defaultTick
	}
	return t.cfg.Interval
}

func (t *Trigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	// run once right away so a fresh deployment catches up
	t.Tick(ctx)

	ticker := time.NewTicker(t.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs every job that is due at the current time. Invoices go first so the
// monthly roll happens inside the invoicing transaction whenever possible.
func (t *Trigger) Tick(ctx context.Context) {
	now := t.clock.Now().UTC()
	day := now.Format(dayLayout)
	month := types.BillingPeriodOf(now).String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastInvoiced != month && now.Day() >= t.invoiceDay() {
		period := types.PreviousBillingPeriod(now)
		if t.run(ctx, service.JobInvoiceGeneration, func(ctx context.Context) error {
			_, err := t.jobs.RunInvoiceGeneration(ctx, &period)
			return err
		}) {
			t.lastInvoiced = month
		}
	}

	if t.lastMonthlyReset != month {
		if t.run(ctx, service.JobMonthlyReset, func(ctx context.Context) error {
			_, err := t.jobs.RunMonthlyReset(ctx)
			return err
		}) {
			t.lastMonthlyReset = month
		}
	}

	if t.lastDailyReset != day {
		if t.run(ctx, service.JobDailyReset, func(ctx context.Context) error {
			_, err := t.jobs.RunDailyReset(ctx)
			return err
		}) {
			t.lastDailyReset = day
		}
	}

	if t.lastOverdueSweep != day {
		if t.run(ctx, service.JobOverdueInvoiceScan, func(ctx context.Context) error {
			_, err := t.jobs.RunOverdueSweep(ctx)
			return err
		}) {
			t.lastOverdueSweep = day
		}
	}
}

func (t *Trigger) invoiceDay() int {
	if t.cfg.InvoiceDayOfMonth < 1 || t.cfg.InvoiceDayOfMonth > 28 {
		return 1
	}
	return t.cfg.InvoiceDayOfMonth
}

// run reports whether the job completed. Per tenant failures are part of the
// job report and do not count as a failed run.
func (t *Trigger) run(ctx context.Context, job string, fn func(ctx context.Context) error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := fn(ctx); err != nil {
		t.logger.Errorw("scheduled job failed", "job", job, "error", err)
		return false
	}
	t.logger.Debugw("scheduled job completed", "job", job)
	return true
}
