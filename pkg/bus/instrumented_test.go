package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus/memtransport"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedTransportDelegatesDelivery(t *testing.T) {
	inner := memtransport.New(memtransport.Config{BufferSize: 8})
	defer inner.Close()

	transport := bus.NewInstrumentedTransport(inner)

	received := make(chan string, 1)
	consumer, err := transport.NewGroupConsumer("watchers", []bus.TopicConsumeSpec{{
		Topic: "events", Instances: 1,
		Handler: func(ctx context.Context, msg bus.InboundMessage) error {
			received <- string(msg.Payload)
			return nil
		},
	}})
	require.NoError(t, err)
	require.NoError(t, consumer.Start(context.Background()))
	defer consumer.Close()

	producer, err := transport.Producer("events")
	require.NoError(t, err)
	require.NoError(t, producer.Publish(context.Background(), bus.OutboundMessage{Topic: "events", Payload: []byte("hi")}))

	select {
	case got := <-received:
		require.Equal(t, "hi", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for instrumented delivery")
	}
}
