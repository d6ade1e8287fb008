package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "redpacket/contracts/gen/events/v1"
)

const subscriptionBuffer = 128

// Kafka is the event bus used by the outbox relay and projectors.
// It is an in-process broker with consumer-group semantics: every group
// subscribed to a topic receives each event once, and handlers registered
// under the same group share that group's stream.
type Kafka struct {
	mu      sync.RWMutex
	brokers []string
	groups  map[string]map[string]chan contractsv1.Envelope
	logger  *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: append([]string(nil), brokers...),
		groups:  make(map[string]map[string]chan contractsv1.Envelope),
		logger:  logger,
	}, nil
}

// Publish hands the event to every group subscribed to topic. It blocks while
// a group's buffer is full, so a relay only marks an outbox row sent once the
// event is queued for all groups.
func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	k.mu.RLock()
	streams := make([]chan contractsv1.Envelope, 0, len(k.groups[topic]))
	for _, stream := range k.groups[topic] {
		streams = append(streams, stream)
	}
	k.mu.RUnlock()

	for _, stream := range streams {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case stream <- event:
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"groups", len(streams),
	)
	return nil
}

// Subscribe starts a consumer goroutine that lives until ctx is done.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	k.mu.Lock()
	byGroup, ok := k.groups[topic]
	if !ok {
		byGroup = make(map[string]chan contractsv1.Envelope)
		k.groups[topic] = byGroup
	}
	stream, ok := byGroup[consumerGroup]
	if !ok {
		stream = make(chan contractsv1.Envelope, subscriptionBuffer)
		byGroup[consumerGroup] = stream
	}
	k.mu.Unlock()

	k.logger.Info("consumer subscribed",
		"event", "kafka_subscribe",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", consumerGroup,
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-stream:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Brokers reports the configured broker addresses.
func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}
