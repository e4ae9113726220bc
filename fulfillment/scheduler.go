package fulfillment

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/model"
	"go.uber.org/zap"
)

const DefaultPollInterval = time.Second

// Scheduler polls for due deliveries and hands them to workers.
type Scheduler struct {
	deliveries dao.DeliveryDao
	worker     *Worker
	supervisor *Supervisor
	interval   time.Duration
	now        func() time.Time
}

func NewScheduler(deliveries dao.DeliveryDao, worker *Worker, supervisor *Supervisor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{
		deliveries: deliveries,
		worker:     worker,
		supervisor: supervisor,
		interval:   interval,
		now:        time.Now,
	}
}

// Run ticks until ctx is cancelled. Store errors back off up to a minute.
func (s *Scheduler) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.interval
	b.MaxInterval = time.Minute

	for {
		wait := s.interval
		if _, err := s.Tick(); err != nil {
			wait = b.NextBackOff()
			zap.L().Warn("Scheduler tick failed", zap.Error(err), zap.Duration("retry_in", wait))
		} else {
			b.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Tick dispatches every due delivery that has no running worker and returns
// the number of workers started.
func (s *Scheduler) Tick() (int, error) {
	waiting, err := s.deliveries.ListByStatus(model.WaitingUntilDelivery)
	if err != nil {
		return 0, err
	}

	now := s.now()
	started := 0
	for _, d := range waiting {
		if !d.IsDue(now) || d.RecipientRef == "" {
			continue
		}
		code := d.Code
		h, ok := s.supervisor.Go(code, func(ctx context.Context) {
			if err := s.worker.Process(ctx, code); err != nil {
				zap.L().Error("Worker failed", zap.String("code", code), zap.Error(err))
			}
		})
		if !ok {
			continue
		}
		zap.L().Debug("Worker dispatched", zap.String("code", code), zap.String("worker", h.ID))
		started++
	}
	return started, nil
}
