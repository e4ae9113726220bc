package fulfillment

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// GateScope decides how much of a worker runs under the purchase gate.
type GateScope string

const (
	// ScopePurchase guards only the gift purchase.
	ScopePurchase GateScope = "purchase"
	// ScopeWorker guards the whole worker body, for automation surfaces that
	// cannot interleave friend and purchase flows.
	ScopeWorker GateScope = "worker"
)

func ParseGateScope(s string) (GateScope, error) {
	switch GateScope(s) {
	case ScopePurchase, ScopeWorker:
		return GateScope(s), nil
	}
	return "", fmt.Errorf("unknown gate scope %q", s)
}

// Gate is the single purchase permit. Waiters are served in FIFO order.
type Gate struct {
	sem     *semaphore.Weighted
	waiting int32
}

func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

func (g *Gate) Acquire(ctx context.Context) error {
	atomic.AddInt32(&g.waiting, 1)
	defer atomic.AddInt32(&g.waiting, -1)
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}

// Waiting is the number of workers queued for the permit.
func (g *Gate) Waiting() int {
	return int(atomic.LoadInt32(&g.waiting))
}
