package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
)

func TestKafkaDeliversToEveryGroupOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}

	var (
		mu       sync.Mutex
		received = map[string][]string{}
		wg       sync.WaitGroup
	)
	wg.Add(4)
	for _, group := range []string{"activity", "audit"} {
		group := group
		if err := bus.Subscribe(ctx, contractsv1.RedPacketEventsTopic, group, func(_ context.Context, event contractsv1.Envelope) error {
			mu.Lock()
			received[group] = append(received[group], event.EventID)
			mu.Unlock()
			wg.Done()
			return nil
		}); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}

	for _, id := range []string{"evt-1", "evt-2"} {
		if err := bus.Publish(ctx, contractsv1.RedPacketEventsTopic, contractsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for deliveries")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, group := range []string{"activity", "audit"} {
		got := received[group]
		if len(got) != 2 || got[0] != "evt-1" || got[1] != "evt-2" {
			t.Fatalf("group %s received %v", group, got)
		}
	}
}

func TestKafkaPublishWithoutSubscribers(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	if err := bus.Publish(context.Background(), "empty.topic", contractsv1.Envelope{EventID: "evt"}); err != nil {
		t.Fatalf("publish to topic without groups should succeed, got %v", err)
	}
}

func TestKafkaPublishHonoursCancellation(t *testing.T) {
	subCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	release := make(chan struct{})
	defer close(release)

	bus, _ := NewKafka(nil, nil)
	if err := bus.Subscribe(subCtx, "t", "g", func(context.Context, contractsv1.Envelope) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// One event parks in the stuck handler, the rest fill the group buffer.
	for i := 0; i <= subscriptionBuffer; i++ {
		if err := bus.Publish(context.Background(), "t", contractsv1.Envelope{}); err != nil {
			t.Fatalf("buffered publish failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bus.Publish(ctx, "t", contractsv1.Envelope{}); err == nil {
		t.Fatalf("expected publish to fail once the group buffer is full")
	}
}
