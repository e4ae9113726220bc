package events

import (
	"context"

	"github.com/cskr/pubsub"
	"github.com/dilshat/gift-courier/model"
)

const capacity = 16

// Bus fans out delivery changes to subscribers keyed by order code.
type Bus struct {
	ps *pubsub.PubSub
}

func NewBus() *Bus {
	return &Bus{ps: pubsub.New(capacity)}
}

func (b *Bus) Publish(d model.Delivery) {
	b.ps.Pub(d, d.Code)
}

// Wait blocks until a change for code is published that satisfies match,
// or ctx is done.
func (b *Bus) Wait(ctx context.Context, code string, match func(model.Delivery) bool) (model.Delivery, bool) {
	ch := b.ps.Sub(code)
	defer func() {
		go b.ps.Unsub(ch, code)
		for range ch {
			//drain until unsubscribed
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return model.Delivery{}, false
		case v, ok := <-ch:
			if !ok {
				return model.Delivery{}, false
			}
			d := v.(model.Delivery)
			if match == nil || match(d) {
				return d, true
			}
		}
	}
}

func (b *Bus) Shutdown() {
	b.ps.Shutdown()
}
