package bus

import (
	"fmt"
	"reflect"
	"time"
)

// HandlerKind distinguishes the two consumer-side interaction styles a
// ConsumerRegistration can bind a topic to.
type HandlerKind int

const (
	// KindSubscriber registers a fire-and-forget handler (Subscriber).
	KindSubscriber HandlerKind = iota
	// KindRequestHandler registers a request/response handler (RequestHandler).
	KindRequestHandler
)

// MessageTypeRegistration binds a published message type to a destination
// topic and optional key/partition selectors.
type MessageTypeRegistration struct {
	MessageType       reflect.Type
	Topic             string
	KeySelector       func(message any) []byte
	PartitionSelector func(message any) int32 // -1 means "no partition"
}

// ConsumerRegistration binds a message type to a topic, group, and handler.
type ConsumerRegistration struct {
	MessageType        reflect.Type
	ResponseType       reflect.Type // nil unless Kind == KindRequestHandler
	Topic              string
	Group              string
	Kind               HandlerKind
	HandlerType        reflect.Type
	Instances          int
	CheckpointCount    int
	CheckpointDuration time.Duration
}

// RequestResponseRegistration configures the bus-wide reply topic/group and
// default request timeout. At most one may exist per Settings.
type RequestResponseRegistration struct {
	ReplyTopic     string
	Group          string
	DefaultTimeout time.Duration
}

// Settings is the immutable, validated output of Builder.Build.
type Settings struct {
	InstanceID      string
	Publishers      []MessageTypeRegistration
	Consumers       []ConsumerRegistration
	RequestResponse *RequestResponseRegistration
	DefaultTimeout  time.Duration
}

// Builder accumulates registrations for a single call to Build. It is not
// safe for concurrent use; build a Settings once at startup and share it.
type Builder struct {
	instanceID      string
	publishers      []MessageTypeRegistration
	consumers       []ConsumerRegistration
	requestResponse *RequestResponseRegistration
	defaultTimeout  time.Duration
}

// NewBuilder starts an empty registration.
func NewBuilder() *Builder {
	return &Builder{defaultTimeout: 30 * time.Second}
}

// WithInstanceID sets the informational instance identifier.
func (b *Builder) WithInstanceID(id string) *Builder {
	b.instanceID = id
	return b
}

// WithDefaultTimeout sets the bus-wide Send timeout used when neither the
// caller nor the request/response registration specify one.
func (b *Builder) WithDefaultTimeout(d time.Duration) *Builder {
	b.defaultTimeout = d
	return b
}

// PublisherOption configures a Publish registration.
type PublisherOption func(*MessageTypeRegistration)

// WithKeySelector registers a function producing the Kafka record key for
// messages of type T.
func WithKeySelector[T any](fn func(message T) []byte) PublisherOption {
	return func(r *MessageTypeRegistration) {
		r.KeySelector = func(m any) []byte { return fn(m.(T)) }
	}
}

// WithPartitionSelector registers a function producing the target
// partition for messages of type T; return -1 to defer to the broker.
func WithPartitionSelector[T any](fn func(message T) int32) PublisherOption {
	return func(r *MessageTypeRegistration) {
		r.PartitionSelector = func(m any) int32 { return fn(m.(T)) }
	}
}

// Publish registers T as publishable to topic, with optional key/partition selectors.
func Publish[T any](b *Builder, topic string, opts ...PublisherOption) *Builder {
	reg := MessageTypeRegistration{MessageType: typeOf[T](), Topic: topic}
	for _, opt := range opts {
		opt(&reg)
	}
	b.publishers = append(b.publishers, reg)
	return b
}

// ConsumerOption configures a consumer registration.
type ConsumerOption func(*ConsumerRegistration)

// WithInstances sets the bounded per-partition handler concurrency (default 1).
func WithInstances(n int) ConsumerOption {
	return func(r *ConsumerRegistration) { r.Instances = n }
}

// WithCheckpoint overrides the default checkpoint count/duration for this registration.
func WithCheckpoint(count int, duration time.Duration) ConsumerOption {
	return func(r *ConsumerRegistration) {
		r.CheckpointCount = count
		r.CheckpointDuration = duration
	}
}

// SubscribeTo registers a fire-and-forget consumer of T on topic within group,
// dispatching to the type H (resolved from the bus's Resolver at dispatch time).
func SubscribeTo[T any, H Subscriber](b *Builder, topic, group string, opts ...ConsumerOption) *Builder {
	reg := ConsumerRegistration{
		MessageType: typeOf[T](),
		Topic:       topic,
		Group:       group,
		Kind:        KindSubscriber,
		HandlerType: typeOf[H](),
		Instances:   1,
	}
	for _, opt := range opts {
		opt(&reg)
	}
	b.consumers = append(b.consumers, reg)
	return b
}

// Handle registers a request/response consumer: TReq arrives on topic
// within group, dispatched to H, whose response (TResp) or fault is
// published back to the request's ReplyTo topic.
func Handle[TReq, TResp any, H RequestHandler](b *Builder, topic, group string, opts ...ConsumerOption) *Builder {
	reg := ConsumerRegistration{
		MessageType:  typeOf[TReq](),
		ResponseType: typeOf[TResp](),
		Topic:        topic,
		Group:        group,
		Kind:         KindRequestHandler,
		HandlerType:  typeOf[H](),
		Instances:    1,
	}
	for _, opt := range opts {
		opt(&reg)
	}
	b.consumers = append(b.consumers, reg)
	return b
}

// ExpectRequestResponses configures the bus's reply topic/group and default timeout.
func (b *Builder) ExpectRequestResponses(replyTopic, group string, defaultTimeout time.Duration) *Builder {
	b.requestResponse = &RequestResponseRegistration{
		ReplyTopic:     replyTopic,
		Group:          group,
		DefaultTimeout: defaultTimeout,
	}
	return b
}

// Build validates all accumulated registrations and returns an immutable Settings.
func (b *Builder) Build() (Settings, error) {
	seenPublisher := make(map[reflect.Type]bool)
	for _, p := range b.publishers {
		if p.Topic == "" {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("publisher for %s has no topic", p.MessageType))
		}
		if seenPublisher[p.MessageType] {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("duplicate publisher registration for %s", p.MessageType))
		}
		seenPublisher[p.MessageType] = true
	}

	type groupTopic struct{ group, topic string }
	seenGroupTopic := make(map[groupTopic]bool)

	for _, c := range b.consumers {
		if c.Topic == "" || c.Group == "" {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("consumer for %s has empty topic or group", c.MessageType))
		}
		if c.HandlerType == nil {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("consumer for %s has no handler type", c.MessageType))
		}
		if c.Instances < 1 {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("consumer for %s has Instances < 1", c.MessageType))
		}

		// a group's underlying GroupConsumer dispatches by topic alone (one
		// TopicConsumeSpec per topic), so two consumers sharing a group must
		// target different topics: a second registration for the same
		// (group, topic) would silently clobber the first's handler.
		gt := groupTopic{c.Group, c.Topic}
		if seenGroupTopic[gt] {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("duplicate consumer registration for (group=%s, topic=%s); consumers sharing a group must target different topics", c.Group, c.Topic))
		}
		seenGroupTopic[gt] = true
	}

	if b.requestResponse != nil {
		rr := b.requestResponse
		if rr.ReplyTopic == "" || rr.Group == "" {
			return Settings{}, ErrInvalidConfiguration("request/response registration has empty topic or group")
		}
		if rr.DefaultTimeout <= 0 {
			rr.DefaultTimeout = 30 * time.Second
		}
		gt := groupTopic{rr.Group, rr.ReplyTopic}
		if seenGroupTopic[gt] {
			return Settings{}, ErrInvalidConfiguration(fmt.Sprintf("request/response (group=%s, topic=%s) collides with a consumer registration", rr.Group, rr.ReplyTopic))
		}
	}

	settings := Settings{
		InstanceID:      b.instanceID,
		Publishers:      append([]MessageTypeRegistration(nil), b.publishers...),
		Consumers:       append([]ConsumerRegistration(nil), b.consumers...),
		RequestResponse: b.requestResponse,
		DefaultTimeout:  b.defaultTimeout,
	}
	return settings, nil
}
