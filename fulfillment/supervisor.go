package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dchest/uniuri"
	"go.uber.org/zap"
)

// Handle describes one running worker.
type Handle struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	StartedAt time.Time `json:"started_at"`
}

// Supervisor owns the worker goroutines: it refuses a second worker for a
// code that is still running, recovers panics and tracks outstanding handles.
type Supervisor struct {
	ctx     context.Context
	onPanic func(code string, recovered interface{})

	mu      sync.Mutex
	running map[string]Handle
	wg      sync.WaitGroup
}

func NewSupervisor(ctx context.Context, onPanic func(code string, recovered interface{})) *Supervisor {
	return &Supervisor{
		ctx:     ctx,
		onPanic: onPanic,
		running: map[string]Handle{},
	}
}

// Go starts fn for code unless a worker for code is already running.
func (s *Supervisor) Go(code string, fn func(ctx context.Context)) (Handle, bool) {
	s.mu.Lock()
	if _, busy := s.running[code]; busy {
		s.mu.Unlock()
		return Handle{}, false
	}
	h := Handle{ID: uniuri.NewLen(10), Code: code, StartedAt: time.Now()}
	s.running[code] = h
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("Recovered in worker", zap.String("code", code), zap.String("worker", h.ID),
					zap.String("panic", fmt.Sprint(r)))
				if s.onPanic != nil {
					s.onPanic(code, r)
				}
			}
			s.mu.Lock()
			delete(s.running, code)
			s.mu.Unlock()
			s.wg.Done()
		}()

		fn(s.ctx)
	}()

	return h, true
}

func (s *Supervisor) Busy(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[code]
	return ok
}

// InFlight lists running workers, oldest first.
func (s *Supervisor) InFlight() []Handle {
	s.mu.Lock()
	handles := make([]Handle, 0, len(s.running))
	for _, h := range s.running {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].StartedAt.Before(handles[j].StartedAt)
	})
	return handles
}

// Wait blocks until all workers finish or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
