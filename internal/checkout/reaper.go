package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	defaultReapBatch = 100
	reasonAbandoned  = "abandoned"
)

// reapable never includes payment_initiated: money may be in flight.
var reapable = []domain.CheckoutStatus{
	domain.CheckoutStatusDraft,
	domain.CheckoutStatusItemsConfirmed,
}

type ReaperConfig struct {
	// Orders must be able to update any user's orders.
	Orders      repository.OrderRepository
	Store       store.Store
	Metrics     StepObserver
	StaleAfter  time.Duration
	StepTimeout time.Duration
	BatchSize   int
	Now         func() time.Time
}

// Reaper compensates checkout attempts that stopped before payment.
type Reaper struct {
	comp       compensator
	store      store.Store
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
	cron       *cron.Cron
}

func NewReaper(cfg ReaperConfig) *Reaper {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopObserver{}
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultReapBatch
	}
	return &Reaper{
		comp: compensator{
			orders:  cfg.Orders,
			store:   cfg.Store,
			timeout: cfg.StepTimeout,
			now:     cfg.Now,
			metrics: cfg.Metrics,
		},
		store:      cfg.Store,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		now:        cfg.Now,
	}
}

// Start runs the reaper on a cron schedule until Stop is called.
func (r *Reaper) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := r.Run(ctx); err != nil {
			logger.FromContext(ctx).WithError(err).Error("checkout reaper run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	r.cron = c
	c.Start()
	return nil
}

// Stop waits for a running pass to finish.
func (r *Reaper) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// Run compensates one batch of stale attempts and returns how many were
// closed. Attempts left compensating by an earlier failure are retried
// whatever their age.
func (r *Reaper) Run(ctx context.Context) (int, error) {
	now := r.now()
	stale, err := r.store.ListStaleAttempts(ctx, reapable, now.Add(-r.staleAfter), r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale attempts: %w", err)
	}
	unfinished, err := r.store.ListStaleAttempts(ctx, []domain.CheckoutStatus{domain.CheckoutStatusCompensating}, now, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list compensating attempts: %w", err)
	}
	stale = append(stale, unfinished...)

	reaped := 0
	for _, attempt := range stale {
		if err := r.comp.abort(ctx, attempt, reasonAbandoned); err != nil {
			if errors.Is(err, store.ErrStaleAttempt) {
				continue
			}
			logger.FromContext(ctx).WithError(err).WithField("attempt_id", attempt.ID).Warn("failed to reap checkout attempt")
			continue
		}
		reaped++
	}
	if reaped > 0 {
		logger.FromContext(ctx).WithField("count", reaped).Info("reaped stale checkout attempts")
	}
	return reaped, nil
}
