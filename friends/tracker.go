package friends

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultPollInterval    = time.Second
	DefaultAcceptTimeout   = 10 * time.Minute
)

type Lister interface {
	ListFriends(ctx context.Context) ([]string, error)
}

// Tracker keeps the last good snapshot of the courier account's friends.
// A failed refresh never clears it.
type Tracker struct {
	lister   Lister
	interval time.Duration

	mu          sync.RWMutex
	snapshot    map[string]struct{}
	refreshedAt time.Time
	ready       chan struct{}
	readyOnce   sync.Once
}

func NewTracker(lister Lister, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Tracker{
		lister:   lister,
		interval: interval,
		snapshot: map[string]struct{}{},
		ready:    make(chan struct{}),
	}
}

// Run refreshes the snapshot until ctx is cancelled. Failed refreshes are
// retried with exponential backoff capped at the refresh interval.
func (t *Tracker) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.interval / 10
	b.MaxInterval = t.interval

	for {
		wait := t.interval
		if err := t.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			wait = b.NextBackOff()
			zap.L().Warn("Error refreshing friend list, keeping last snapshot",
				zap.Error(err), zap.Duration("retry_in", wait))
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

func (t *Tracker) Refresh(ctx context.Context) error {
	ids, err := t.lister.ListFriends(ctx)
	if err != nil {
		return err
	}
	snapshot := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		snapshot[id] = struct{}{}
	}

	t.mu.Lock()
	t.snapshot = snapshot
	t.refreshedAt = time.Now()
	t.mu.Unlock()

	t.readyOnce.Do(func() { close(t.ready) })
	return nil
}

// Ready is closed after the first successful refresh.
func (t *Tracker) Ready() <-chan struct{} {
	return t.ready
}

func (t *Tracker) Contains(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.snapshot[id]
	return ok
}

func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshot)
}

func (t *Tracker) RefreshedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refreshedAt
}

// WaitFor polls the snapshot every poll until id appears. It returns false
// when timeout elapses or ctx is cancelled first.
func (t *Tracker) WaitFor(ctx context.Context, id string, poll, timeout time.Duration) bool {
	if t.Contains(id) {
		return true
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return t.Contains(id)
		case <-ticker.C:
			if t.Contains(id) {
				return true
			}
		}
	}
}
