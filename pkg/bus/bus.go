package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/logger"
	"github.com/google/uuid"
)

// Bus is the message-bus facade: publish fire-and-forget messages, send
// correlated requests and await a typed response, and drive the consumer
// side by dispatching inbound messages to resolved handlers.
//
// A Bus is built once via New (or a Builder + New) and is safe for
// concurrent use by multiple publishers/senders. Dispose stops all
// background consumption and fails any outstanding Send calls.
type Bus struct {
	settings   Settings
	transport  Transport
	serializer Serializer
	resolver   Resolver

	publishersByType map[reflect.Type]MessageTypeRegistration
	producers        map[string]Producer
	producersMu      sync.Mutex

	correlation *CorrelationRegistry
	sweeper     *sweeper

	consumers []GroupConsumer

	closeOnce sync.Once
	closed    chan struct{}
}

// New wires a Bus from validated Settings, a concrete Transport
// implementation (kafka.New, redistransport.New, memtransport.New, ...), a
// Serializer for message payloads, and a Resolver used to look up handler
// instances by type at dispatch time.
func New(settings Settings, transport Transport, serializer Serializer, resolver Resolver) (*Bus, error) {
	b := &Bus{
		settings:         settings,
		transport:        transport,
		serializer:       serializer,
		resolver:         resolver,
		publishersByType: make(map[reflect.Type]MessageTypeRegistration),
		producers:        make(map[string]Producer),
		correlation:      NewCorrelationRegistry(),
		closed:           make(chan struct{}),
	}
	for _, p := range settings.Publishers {
		b.publishersByType[p.MessageType] = p
	}

	b.sweeper = startSweeper(b.correlation, time.Second, func(correlationID string) error {
		return ErrRequestTimeout(correlationID)
	})

	if err := b.startConsumers(context.Background()); err != nil {
		b.sweeper.Stop()
		return nil, err
	}

	return b, nil
}

// Publish serializes and sends message fire-and-forget to the topic its
// type was registered against via Builder.Publish.
func (b *Bus) Publish(ctx context.Context, message any) error {
	reg, ok := b.publishersByType[reflect.TypeOf(message)]
	if !ok {
		return ErrInvalidConfiguration(fmt.Sprintf("type %T has no publisher registration", message))
	}

	payload, err := b.serializer.Serialize(message)
	if err != nil {
		return ErrSerializationFailed(err)
	}

	out := OutboundMessage{
		Topic:     reg.Topic,
		Payload:   payload,
		Partition: -1,
		Headers:   map[string]string{},
	}
	if reg.KeySelector != nil {
		out.Key = reg.KeySelector(message)
	}
	if reg.PartitionSelector != nil {
		out.Partition = reg.PartitionSelector(message)
	}

	producer, err := b.producerFor(reg.Topic)
	if err != nil {
		return err
	}

	if err := producer.Publish(ctx, out); err != nil {
		return ErrPublishFailed(reg.Topic, err)
	}
	return nil
}

// Send publishes request as a correlated request/response message and
// blocks until a response of type TResp arrives, ctx is cancelled, or
// timeout elapses (zero means use the bus's request/response default).
func Send[TResp any](ctx context.Context, b *Bus, request any, timeout time.Duration) (TResp, error) {
	var zero TResp

	if b.settings.RequestResponse == nil {
		return zero, ErrInvalidConfiguration("bus has no request/response registration; call Builder.ExpectRequestResponses")
	}
	rr := b.settings.RequestResponse

	reg, ok := b.publishersByType[reflect.TypeOf(request)]
	if !ok {
		return zero, ErrInvalidConfiguration(fmt.Sprintf("type %T has no publisher registration", request))
	}

	if timeout <= 0 {
		timeout = rr.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = b.settings.DefaultTimeout
	}

	correlationID := uuid.NewString()
	deadline := time.Now().Add(timeout)
	pending, done := b.correlation.Register(correlationID, typeOf[TResp](), deadline)
	_ = pending

	payload, err := b.serializer.Serialize(request)
	if err != nil {
		b.correlation.Remove(correlationID)
		return zero, ErrSerializationFailed(err)
	}

	out := OutboundMessage{
		Topic:     reg.Topic,
		Payload:   payload,
		Partition: -1,
		Headers: Envelope{
			CorrelationID: correlationID,
			ReplyTo:       rr.ReplyTopic,
			Expires:       deadline.UnixMilli(),
		}.Headers(),
	}
	if reg.KeySelector != nil {
		out.Key = reg.KeySelector(request)
	}
	if reg.PartitionSelector != nil {
		out.Partition = reg.PartitionSelector(request)
	}

	producer, err := b.producerFor(reg.Topic)
	if err != nil {
		b.correlation.Remove(correlationID)
		return zero, err
	}
	if err := producer.Publish(ctx, out); err != nil {
		b.correlation.Remove(correlationID)
		return zero, ErrPublishFailed(reg.Topic, err)
	}

	select {
	case result := <-done:
		if result.Err != nil {
			return zero, result.Err
		}
		resp, ok := result.Response.(TResp)
		if !ok {
			return zero, ErrInvalidConfiguration(fmt.Sprintf("response type mismatch: expected %T", zero))
		}
		return resp, nil
	case <-ctx.Done():
		b.correlation.Remove(correlationID)
		return zero, ErrRequestCancelled(correlationID)
	case <-b.closed:
		return zero, ErrBusShutdown()
	}
}

// Reply resolves a pending Send by correlation id with either a successful
// response or a fault message, as delivered over the reply topic. Called
// from the reply-topic consumer loop; it is a no-op (dropped reply) if the
// correlation id is unknown, which happens when the request already timed
// out locally.
func (b *Bus) Reply(correlationID string, response any, fault string) {
	if fault != "" {
		b.correlation.TryFail(correlationID, ErrHandlerFaulted(fault))
		return
	}
	b.correlation.TryResolve(correlationID, response)
}

// Dispose stops all consumers, the correlation sweeper, and closes every
// producer, failing any outstanding Send calls with ErrBusShutdown.
func (b *Bus) Dispose() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		b.sweeper.Stop()

		for _, c := range b.consumers {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}

		b.correlation.FailAll(func(string) error { return ErrBusShutdown() })

		b.producersMu.Lock()
		for _, p := range b.producers {
			if cerr := p.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		b.producersMu.Unlock()

		if cerr := b.transport.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

func (b *Bus) producerFor(topic string) (Producer, error) {
	b.producersMu.Lock()
	defer b.producersMu.Unlock()

	if p, ok := b.producers[topic]; ok {
		return p, nil
	}
	p, err := b.transport.Producer(topic)
	if err != nil {
		return nil, ErrPublishFailed(topic, err)
	}
	b.producers[topic] = p
	return p, nil
}

// startConsumers builds one GroupConsumer per (group) in settings, wiring
// each registered topic's handler as a transport-agnostic ConsumeHandler
// closure, plus the reply-topic consumer if request/response is enabled.
func (b *Bus) startConsumers(ctx context.Context) error {
	byGroup := make(map[string][]TopicConsumeSpec)

	for _, c := range b.settings.Consumers {
		reg := c
		spec := TopicConsumeSpec{
			Topic:              reg.Topic,
			Instances:          reg.Instances,
			CheckpointCount:    reg.CheckpointCount,
			CheckpointDuration: reg.CheckpointDuration,
			Handler:            b.consumerHandler(reg),
		}
		byGroup[reg.Group] = append(byGroup[reg.Group], spec)
	}

	if rr := b.settings.RequestResponse; rr != nil {
		byGroup[rr.Group] = append(byGroup[rr.Group], TopicConsumeSpec{
			Topic:   rr.ReplyTopic,
			Handler: b.replyHandler(),
		})
	}

	for group, specs := range byGroup {
		gc, err := b.transport.NewGroupConsumer(group, specs)
		if err != nil {
			return ErrInvalidConfiguration(fmt.Sprintf("failed to build group consumer for group %s: %v", group, err))
		}
		if err := gc.Start(ctx); err != nil {
			return ErrInvalidConfiguration(fmt.Sprintf("failed to start group consumer for group %s: %v", group, err))
		}
		b.consumers = append(b.consumers, gc)
	}
	return nil
}

// consumerHandler builds the ConsumeHandler for a registered Subscriber or
// RequestHandler consumer, deserializing the payload, resolving the
// handler instance, and invoking it. For KindRequestHandler registrations
// the handler's response (or error, as a fault) is published back to the
// inbound message's ReplyTo header.
func (b *Bus) consumerHandler(reg ConsumerRegistration) ConsumeHandler {
	return func(ctx context.Context, msg InboundMessage) error {
		value, err := b.serializer.Deserialize(msg.Payload, reg.MessageType)
		if err != nil {
			return ErrSerializationFailed(err)
		}

		handlerInstance, err := b.resolver.Resolve(reg.HandlerType)
		if err != nil {
			return ErrInvalidConfiguration(fmt.Sprintf("failed to resolve handler %s: %v", reg.HandlerType, err))
		}

		switch reg.Kind {
		case KindSubscriber:
			subscriber, ok := handlerInstance.(Subscriber)
			if !ok {
				return ErrInvalidConfiguration(fmt.Sprintf("handler %s does not implement Subscriber", reg.HandlerType))
			}
			if err := subscriber.OnMessage(ctx, msg.Topic, value); err != nil {
				logger.L().ErrorContext(ctx, "subscriber handler failed", "topic", msg.Topic, "error", err)
				return err
			}
			return nil

		case KindRequestHandler:
			handler, ok := handlerInstance.(RequestHandler)
			if !ok {
				return ErrInvalidConfiguration(fmt.Sprintf("handler %s does not implement RequestHandler", reg.HandlerType))
			}
			return b.dispatchRequestHandler(ctx, msg, handler, value)

		default:
			return ErrInvalidConfiguration(fmt.Sprintf("unknown handler kind %d", reg.Kind))
		}
	}
}

func (b *Bus) dispatchRequestHandler(ctx context.Context, msg InboundMessage, handler RequestHandler, request any) error {
	inEnvelope := EnvelopeFromHeaders(msg.Headers)

	response, err := handler.OnRequest(ctx, request)

	if inEnvelope.ReplyTo == "" || inEnvelope.CorrelationID == "" {
		// no reply route: treat as fire-and-forget, still surface handler errors
		// to the consumer engine for logging purposes.
		return err
	}

	replyEnvelope := Envelope{CorrelationID: inEnvelope.CorrelationID}
	var payload []byte

	if err != nil {
		replyEnvelope.Fault = err.Error()
	} else {
		payload, err = b.serializer.Serialize(response)
		if err != nil {
			replyEnvelope.Fault = ErrSerializationFailed(err).Error()
			payload = nil
		}
	}

	producer, perr := b.producerFor(inEnvelope.ReplyTo)
	if perr != nil {
		return perr
	}
	return producer.Publish(ctx, OutboundMessage{
		Topic:     inEnvelope.ReplyTo,
		Payload:   payload,
		Partition: -1,
		Headers:   replyEnvelope.Headers(),
	})
}

// replyHandler builds the ConsumeHandler for the bus's own reply topic,
// resolving each inbound reply to its PendingRequest via Reply.
func (b *Bus) replyHandler() ConsumeHandler {
	return func(ctx context.Context, msg InboundMessage) error {
		envelope := EnvelopeFromHeaders(msg.Headers)
		if envelope.CorrelationID == "" {
			return nil
		}

		if envelope.Fault != "" {
			b.Reply(envelope.CorrelationID, nil, envelope.Fault)
			return nil
		}

		responseType, ok := b.correlation.ResponseTypeOf(envelope.CorrelationID)
		if !ok {
			return nil
		}

		value, err := b.serializer.Deserialize(msg.Payload, responseType)
		if err != nil {
			b.Reply(envelope.CorrelationID, nil, ErrSerializationFailed(err).Error())
			return nil
		}
		b.Reply(envelope.CorrelationID, value, "")
		return nil
	}
}
