package memtransport_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus/memtransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerFansOutToEveryRegisteredGroup(t *testing.T) {
	tr := memtransport.New(memtransport.Config{BufferSize: 10})
	defer tr.Close()

	var mu sync.Mutex
	var groupA, groupB []string

	consumerA, err := tr.NewGroupConsumer("group-a", []bus.TopicConsumeSpec{{
		Topic: "orders", Instances: 1,
		Handler: func(ctx context.Context, msg bus.InboundMessage) error {
			mu.Lock()
			groupA = append(groupA, string(msg.Payload))
			mu.Unlock()
			return nil
		},
	}})
	require.NoError(t, err)
	require.NoError(t, consumerA.Start(context.Background()))
	defer consumerA.Close()

	consumerB, err := tr.NewGroupConsumer("group-b", []bus.TopicConsumeSpec{{
		Topic: "orders", Instances: 1,
		Handler: func(ctx context.Context, msg bus.InboundMessage) error {
			mu.Lock()
			groupB = append(groupB, string(msg.Payload))
			mu.Unlock()
			return nil
		},
	}})
	require.NoError(t, err)
	require.NoError(t, consumerB.Start(context.Background()))
	defer consumerB.Close()

	producer, err := tr.Producer("orders")
	require.NoError(t, err)
	require.NoError(t, producer.Publish(context.Background(), bus.OutboundMessage{Topic: "orders", Payload: []byte("hello")}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(groupA) == 1 && len(groupB) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"hello"}, groupA)
	assert.Equal(t, []string{"hello"}, groupB)
	mu.Unlock()
}

func TestGroupConsumerRoundRobinsAcrossInstances(t *testing.T) {
	tr := memtransport.New(memtransport.Config{BufferSize: 10})
	defer tr.Close()

	var mu sync.Mutex
	seen := 0

	consumer, err := tr.NewGroupConsumer("workers", []bus.TopicConsumeSpec{{
		Topic: "jobs", Instances: 4,
		Handler: func(ctx context.Context, msg bus.InboundMessage) error {
			mu.Lock()
			seen++
			mu.Unlock()
			return nil
		},
	}})
	require.NoError(t, err)
	require.NoError(t, consumer.Start(context.Background()))
	defer consumer.Close()

	producer, err := tr.Producer("jobs")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, producer.Publish(context.Background(), bus.OutboundMessage{Topic: "jobs", Payload: []byte("x")}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen == 20
	}, time.Second, time.Millisecond)
}

func TestCloseTwiceReturnsError(t *testing.T) {
	tr := memtransport.New(memtransport.Config{})
	require.NoError(t, tr.Close())
	assert.Error(t, tr.Close())
}
