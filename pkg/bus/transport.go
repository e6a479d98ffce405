package bus

import (
	"context"
	"time"
)

// OutboundMessage is what the bus hands a Transport to publish.
type OutboundMessage struct {
	Topic string
	// Key is supplied when the publisher registered a key selector; nil otherwise.
	Key []byte
	// Partition is the selector's result, or -1 to defer to the transport's
	// own partitioner (or to signal "no partitioning concept").
	Partition int32
	Payload   []byte
	Headers   map[string]string
}

// InboundMessage is what a Transport hands back to a ConsumeHandler.
type InboundMessage struct {
	Topic     string
	Partition int32
	// Offset is transport-defined; transports without an offset concept
	// (Redis, memory) leave it at 0.
	Offset  int64
	Key     []byte
	Payload []byte
	Headers map[string]string
}

// ConsumeHandler processes one inbound message. A returned error is
// swallowed by the engine (the kafka engine logs it; the memory and Redis
// engines discard it): the partition still advances
// (at-least-once delivery, per spec §7's propagation policy), except for
// the producer-facing PublishFailed/SerializationFailed paths which the
// bus surfaces to callers directly.
type ConsumeHandler func(ctx context.Context, msg InboundMessage) error

// TopicConsumeSpec binds one topic within a consumer group to the handler
// and per-registration tuning the builder resolved for it.
type TopicConsumeSpec struct {
	Topic   string
	Handler ConsumeHandler
	// Instances bounds concurrent in-flight handler invocations per partition.
	Instances int
	// CheckpointCount/CheckpointDuration configure this topic's CheckpointTrigger.
	CheckpointCount    int
	CheckpointDuration time.Duration
}

// Producer publishes to a single topic, reused across all calls for that topic.
type Producer interface {
	Publish(ctx context.Context, out OutboundMessage) error
	Close() error
}

// GroupConsumer drives one consumer-group identity across a set of topics.
// Start begins consumption in the background and returns once it is
// running (or failed to start); Close stops it.
type GroupConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

// Transport is the capability surface a message-bus backend provides. Each
// adapter (kafka, redistransport, memtransport) implements this with zero
// knowledge of Settings, correlation, or envelopes — those are bus-core
// concerns layered on top via ConsumeHandler closures.
type Transport interface {
	Producer(topic string) (Producer, error)
	// NewGroupConsumer creates one driver for groupID, subscribed to every
	// topic named in specs. Implementations must not commit/ack any topic
	// not present in specs.
	NewGroupConsumer(groupID string, specs []TopicConsumeSpec) (GroupConsumer, error)
	Close() error
}
