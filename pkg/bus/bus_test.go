package bus_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus/memtransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderPlaced struct {
	OrderID string
}

type priceRequest struct {
	SKU string
}

type priceResponse struct {
	Cents int
}

type recordingSubscriber struct {
	mu   sync.Mutex
	seen []orderPlaced
}

func (s *recordingSubscriber) OnMessage(ctx context.Context, topic string, message any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, message.(orderPlaced))
	return nil
}

func (s *recordingSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

type priceHandler struct{}

func (priceHandler) OnRequest(ctx context.Context, request any) (any, error) {
	req := request.(priceRequest)
	if req.SKU == "explode" {
		return nil, fmt.Errorf("no such sku: %s", req.SKU)
	}
	return priceResponse{Cents: 1099}, nil
}

func newTestBus(t *testing.T, configure func(b *bus.Builder)) (*bus.Bus, *bus.Registry) {
	t.Helper()
	builder := bus.NewBuilder().WithInstanceID("test")
	configure(builder)
	settings, err := builder.Build()
	require.NoError(t, err)

	transport := memtransport.New(memtransport.Config{BufferSize: 32})
	t.Cleanup(func() { _ = transport.Close() })

	registry := bus.NewRegistry()
	b, err := bus.New(settings, transport, bus.NewJSONSerializer(), registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Dispose() })
	return b, registry
}

func TestPublishDeliversToSubscribedHandler(t *testing.T) {
	subscriber := &recordingSubscriber{}

	b, registry := newTestBus(t, func(builder *bus.Builder) {
		bus.Publish[orderPlaced](builder, "orders")
		bus.SubscribeTo[orderPlaced, *recordingSubscriber](builder, "orders", "order-watchers")
	})
	bus.RegisterHandler[*recordingSubscriber](registry, subscriber)

	require.NoError(t, b.Publish(context.Background(), orderPlaced{OrderID: "o-1"}))

	require.Eventually(t, func() bool { return subscriber.count() == 1 }, time.Second, time.Millisecond)
}

func TestSendReturnsHandlerResponse(t *testing.T) {
	b, registry := newTestBus(t, func(builder *bus.Builder) {
		bus.Publish[priceRequest](builder, "price-requests")
		bus.Handle[priceRequest, priceResponse, priceHandler](builder, "price-requests", "price-service")
		builder.ExpectRequestResponses("price-replies", "price-replies-group", 2*time.Second)
	})
	bus.RegisterHandler[priceHandler](registry, priceHandler{})

	resp, err := bus.Send[priceResponse](context.Background(), b, priceRequest{SKU: "widget"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1099, resp.Cents)
}

func TestSendSurfacesHandlerFault(t *testing.T) {
	b, registry := newTestBus(t, func(builder *bus.Builder) {
		bus.Publish[priceRequest](builder, "price-requests")
		bus.Handle[priceRequest, priceResponse, priceHandler](builder, "price-requests", "price-service")
		builder.ExpectRequestResponses("price-replies", "price-replies-group", 2*time.Second)
	})
	bus.RegisterHandler[priceHandler](registry, priceHandler{})

	_, err := bus.Send[priceResponse](context.Background(), b, priceRequest{SKU: "explode"}, 0)
	require.Error(t, err)
}

func TestSendTimesOutWhenNoHandlerRegistered(t *testing.T) {
	b, _ := newTestBus(t, func(builder *bus.Builder) {
		bus.Publish[priceRequest](builder, "orphan-requests")
		builder.ExpectRequestResponses("orphan-replies", "orphan-replies-group", 50*time.Millisecond)
	})

	_, err := bus.Send[priceResponse](context.Background(), b, priceRequest{SKU: "widget"}, 0)
	require.Error(t, err)
	assert.True(t, bus.HasRequestTimedOut(err))
}

func TestSendManyConcurrentRequests(t *testing.T) {
	b, registry := newTestBus(t, func(builder *bus.Builder) {
		bus.Publish[priceRequest](builder, "price-requests")
		bus.Handle[priceRequest, priceResponse, priceHandler](builder, "price-requests", "price-service", bus.WithInstances(8))
		builder.ExpectRequestResponses("price-replies", "price-replies-group", 2*time.Second)
	})
	bus.RegisterHandler[priceHandler](registry, priceHandler{})

	const n = 77
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := bus.Send[priceResponse](context.Background(), b, priceRequest{SKU: "widget"}, 0)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
