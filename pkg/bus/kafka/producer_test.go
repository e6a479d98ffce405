package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
)

func TestIsTransientClassifiesBrokerAvailabilityErrors(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{sarama.ErrLeaderNotAvailable, true},
		{sarama.ErrRequestTimedOut, true},
		{sarama.ErrOutOfBrokers, true},
		{sarama.ErrInvalidMessage, false},
		{errors.New("some other error"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.transient {
			t.Errorf("isTransient(%v) = %v, want %v", tc.err, got, tc.transient)
		}
	}
}

func TestToProducerMessageCarriesKeyPartitionAndHeaders(t *testing.T) {
	out := bus.OutboundMessage{
		Topic:     "orders",
		Key:       []byte("order-1"),
		Partition: 3,
		Payload:   []byte(`{"ok":true}`),
		Headers:   map[string]string{"correlation_id": "abc"},
	}

	msg := toProducerMessage("orders", out)

	if msg.Topic != "orders" {
		t.Fatalf("topic = %q", msg.Topic)
	}
	if msg.Partition != 3 {
		t.Fatalf("partition = %d, want 3", msg.Partition)
	}
	key, err := msg.Key.Encode()
	if err != nil || string(key) != "order-1" {
		t.Fatalf("key = %q, err %v", key, err)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "correlation_id" {
		t.Fatalf("headers = %+v", msg.Headers)
	}
}

func TestToProducerMessageAutoPartitionWhenNegative(t *testing.T) {
	out := bus.OutboundMessage{Topic: "orders", Partition: -1, Payload: []byte("x")}
	msg := toProducerMessage("orders", out)
	if msg.Partition != 0 {
		t.Fatalf("expected sarama's zero-value auto-partition sentinel, got %d", msg.Partition)
	}
}
