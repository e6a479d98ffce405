package bus

import (
	"context"
	"reflect"
	"strconv"
)

// Serializer is the external bytes<->object capability the bus delegates
// to. It never inspects payload bytes itself beyond the envelope headers.
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, t reflect.Type) (any, error)
}

// Resolver is the external dependency-resolution capability: given a
// handler type, produce an instance implementing it. The bus acquires
// one instance per dispatch, up to a registration's Instances budget.
type Resolver interface {
	Resolve(handlerType reflect.Type) (any, error)
}

// Subscriber is implemented by handler types registered with SubscribeTo.
type Subscriber interface {
	OnMessage(ctx context.Context, topic string, message any) error
}

// RequestHandler is implemented by handler types registered with Handle.
// Returning an error produces a fault response delivered to the caller's
// Send as HandlerFaulted.
type RequestHandler interface {
	OnRequest(ctx context.Context, request any) (response any, err error)
}

// TopicPartition identifies a partition-processor's assignment. Partition
// is always 0 for transports without a partitioning concept.
type TopicPartition struct {
	Topic     string
	Partition int32
}

// Envelope carries request/response correlation metadata alongside an
// application payload, per the wire format in spec §6. It is the single
// source of truth for the header keys a request/response message carries;
// Bus never sets or reads those keys directly.
type Envelope struct {
	CorrelationID string
	ReplyTo       string
	Expires       int64 // ms epoch, informational
	Fault         string
}

const (
	headerCorrelationID = "correlation_id"
	headerReplyTo       = "reply_to"
	headerExpires       = "expires"
	headerFault         = "fault"
)

// Headers encodes the envelope as transport headers, omitting any field
// left at its zero value.
func (e Envelope) Headers() map[string]string {
	h := map[string]string{}
	if e.CorrelationID != "" {
		h[headerCorrelationID] = e.CorrelationID
	}
	if e.ReplyTo != "" {
		h[headerReplyTo] = e.ReplyTo
	}
	if e.Expires != 0 {
		h[headerExpires] = strconv.FormatInt(e.Expires, 10)
	}
	if e.Fault != "" {
		h[headerFault] = e.Fault
	}
	return h
}

// EnvelopeFromHeaders decodes an Envelope from the headers of an inbound
// message. Missing or unparsable fields are left at their zero value.
func EnvelopeFromHeaders(headers map[string]string) Envelope {
	e := Envelope{
		CorrelationID: headers[headerCorrelationID],
		ReplyTo:       headers[headerReplyTo],
		Fault:         headers[headerFault],
	}
	if v, ok := headers[headerExpires]; ok {
		if expires, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.Expires = expires
		}
	}
	return e
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
