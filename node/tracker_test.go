package node

import (
	"context"
	"testing"
	"time"

	"github.com/meshchain/node/crypto"
)

func TestRequestTrackerAwaitAccepted(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	tracker := NewRequestTracker(bus)

	addr := crypto.TaggedHash{0, 1, 2, 3}
	go func() {
		time.Sleep(10 * time.Millisecond)
		tracker.NotifyAccepted(addr)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok, err := tracker.Await(ctx, addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected accepted=true")
	}
	if count := bus.SubscriberCount(EventTransactionAccepted); count != 0 {
		t.Errorf("subscription leaked: %d subscribers remain", count)
	}
}

func TestRequestTrackerAwaitRejected(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	tracker := NewRequestTracker(bus)

	addr := crypto.TaggedHash{0, 9, 9}
	go func() {
		time.Sleep(10 * time.Millisecond)
		tracker.NotifyRejected(addr)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok, err := tracker.Await(ctx, addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected accepted=false")
	}
}

func TestRequestTrackerAwaitTimeout(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	tracker := NewRequestTracker(bus)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tracker.Await(ctx, crypto.TaggedHash{0, 1})
	if err != ErrAwaitTimeout {
		t.Errorf("err = %v, want ErrAwaitTimeout", err)
	}
	if count := bus.SubscriberCount(EventTransactionAccepted); count != 0 {
		t.Errorf("subscription leaked after timeout: %d subscribers remain", count)
	}
}

func TestRequestTrackerIgnoresOtherAddresses(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	tracker := NewRequestTracker(bus)

	other := crypto.TaggedHash{0, 0xaa}
	target := crypto.TaggedHash{0, 0xbb}

	go func() {
		time.Sleep(5 * time.Millisecond)
		tracker.NotifyAccepted(other)
		time.Sleep(5 * time.Millisecond)
		tracker.NotifyAccepted(target)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok, err := tracker.Await(ctx, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected accepted=true for target address")
	}
}

func TestRequestTrackerCancellationDeregisters(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	tracker := NewRequestTracker(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tracker.Await(ctx, crypto.TaggedHash{0, 1})
		close(done)
	}()

	// Give the goroutine time to subscribe before cancelling.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Await did not return after cancellation")
	}

	if count := bus.SubscriberCount(EventTransactionAccepted); count != 0 {
		t.Errorf("subscription leaked after cancellation: %d subscribers remain", count)
	}
}
