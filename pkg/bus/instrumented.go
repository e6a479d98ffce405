package bus

import (
	"context"

	"github.com/chris-alexander-pop/system-design-library/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedTransport wraps a Transport with logging and tracing around
// every publish and every handler invocation, without changing delivery
// semantics. Wrap the concrete transport before passing it to New:
//
//	transport := bus.NewInstrumentedTransport(kafka.New(cfg))
//	b, err := bus.New(settings, transport, serializer, resolver)
type InstrumentedTransport struct {
	next   Transport
	tracer trace.Tracer
}

// NewInstrumentedTransport wraps next with tracing under the "pkg/bus" tracer name.
func NewInstrumentedTransport(next Transport) *InstrumentedTransport {
	return &InstrumentedTransport{next: next, tracer: otel.Tracer("pkg/bus")}
}

func (t *InstrumentedTransport) Producer(topic string) (Producer, error) {
	producer, err := t.next.Producer(topic)
	if err != nil {
		logger.L().Error("failed to create producer", "topic", topic, "error", err)
		return nil, err
	}
	return &instrumentedProducer{next: producer, topic: topic, tracer: t.tracer}, nil
}

func (t *InstrumentedTransport) NewGroupConsumer(groupID string, specs []TopicConsumeSpec) (GroupConsumer, error) {
	wrapped := make([]TopicConsumeSpec, len(specs))
	for i, spec := range specs {
		spec := spec
		inner := spec.Handler
		spec.Handler = func(ctx context.Context, msg InboundMessage) error {
			return t.instrumentedHandle(ctx, groupID, msg, inner)
		}
		wrapped[i] = spec
	}

	consumer, err := t.next.NewGroupConsumer(groupID, wrapped)
	if err != nil {
		logger.L().Error("failed to create group consumer", "group", groupID, "error", err)
		return nil, err
	}
	return &instrumentedGroupConsumer{next: consumer, groupID: groupID}, nil
}

func (t *InstrumentedTransport) Close() error {
	logger.L().Info("closing transport")
	return t.next.Close()
}

func (t *InstrumentedTransport) instrumentedHandle(ctx context.Context, groupID string, msg InboundMessage, inner ConsumeHandler) error {
	ctx, span := t.tracer.Start(ctx, "bus.HandleMessage", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.String("messaging.group", groupID),
		attribute.Int64("messaging.partition", int64(msg.Partition)),
		attribute.Int64("messaging.offset", msg.Offset),
	))
	defer span.End()

	logger.L().InfoContext(ctx, "processing message", "topic", msg.Topic, "group", groupID, "partition", msg.Partition, "offset", msg.Offset)

	err := inner(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "failed to process message", "topic", msg.Topic, "group", groupID, "error", err)
		return err
	}

	span.SetStatus(codes.Ok, "message processed")
	return nil
}

type instrumentedProducer struct {
	next   Producer
	topic  string
	tracer trace.Tracer
}

func (p *instrumentedProducer) Publish(ctx context.Context, out OutboundMessage) error {
	ctx, span := p.tracer.Start(ctx, "bus.Publish", trace.WithAttributes(
		attribute.String("messaging.topic", p.topic),
	))
	defer span.End()

	logger.L().InfoContext(ctx, "publishing message", "topic", p.topic)

	err := p.next.Publish(ctx, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "failed to publish message", "topic", p.topic, "error", err)
		return err
	}

	span.SetStatus(codes.Ok, "message published")
	return nil
}

func (p *instrumentedProducer) Close() error {
	logger.L().Info("closing producer", "topic", p.topic)
	return p.next.Close()
}

type instrumentedGroupConsumer struct {
	next    GroupConsumer
	groupID string
}

func (c *instrumentedGroupConsumer) Start(ctx context.Context) error {
	logger.L().InfoContext(ctx, "starting group consumer", "group", c.groupID)
	return c.next.Start(ctx)
}

func (c *instrumentedGroupConsumer) Close() error {
	logger.L().Info("closing group consumer", "group", c.groupID)
	return c.next.Close()
}
