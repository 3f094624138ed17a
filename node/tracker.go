package node

import (
	"context"
	"errors"

	"github.com/meshchain/node/crypto"
)

// ErrAwaitTimeout is returned by RequestTracker.Await when ctx is
// cancelled (including the mining_timeout deadline, spec §5) before a
// matching EventTransactionAccepted/EventTransactionRejected arrives.
var ErrAwaitTimeout = errors.New("node: timed out awaiting transaction acceptance")

// RequestTracker implements the pub-sub + oneshot-await pattern spec §9
// calls for: process(NewTransaction) registers interest in one address
// before submitting it for mining, then blocks until that address is
// reported accepted or rejected, or ctx expires. The subscription is
// deregistered on every exit path so a cancelled or timed-out await never
// leaks a live EventBus subscription.
type RequestTracker struct {
	bus *EventBus
}

// NewRequestTracker wraps an EventBus with the oneshot-await helper.
func NewRequestTracker(bus *EventBus) *RequestTracker {
	return &RequestTracker{bus: bus}
}

// Await blocks until EventTransactionAccepted or EventTransactionRejected
// fires for addr, or ctx is done. The returned bool is true on acceptance,
// false on rejection; err is non-nil only for cancellation/timeout.
func (t *RequestTracker) Await(ctx context.Context, addr crypto.TaggedHash) (bool, error) {
	sub := t.bus.SubscribeMultiple(EventTransactionAccepted, EventTransactionRejected)
	defer sub.Unsubscribe()

	for {
		select {
		case ev, ok := <-sub.Chan():
			if !ok {
				return false, ErrAwaitTimeout
			}
			got, ok := ev.Data.(crypto.TaggedHash)
			if !ok || !got.Equal(addr) {
				continue
			}
			return ev.Type == EventTransactionAccepted, nil
		case <-ctx.Done():
			return false, ErrAwaitTimeout
		}
	}
}

// NotifyAccepted publishes acceptance of addr to any awaiting caller.
func (t *RequestTracker) NotifyAccepted(addr crypto.TaggedHash) {
	t.bus.Publish(EventTransactionAccepted, addr)
}

// NotifyRejected publishes rejection of addr to any awaiting caller.
func (t *RequestTracker) NotifyRejected(addr crypto.TaggedHash) {
	t.bus.Publish(EventTransactionRejected, addr)
}
