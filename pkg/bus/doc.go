/*
Package bus provides a transport-agnostic message bus: fluent registration
of publishers, subscribers, and request/response handlers, a correlation
engine that turns an asynchronous pub/sub transport into synchronous
request/response with per-request timeouts, and the wiring that turns
those registrations into running group consumers.

# Architecture

The package follows a hexagonal adapter pattern:
  - Core interfaces (Transport, Producer, GroupConsumer, Serializer,
    Resolver) are defined here with zero transport-specific dependencies.
  - Each transport lives in its own sub-package: pkg/bus/kafka (the
    primary, hardest implementation), pkg/bus/redistransport, and
    pkg/bus/memtransport.
  - Callers construct a transport (e.g. kafka.New(cfg)) and hand it to
    bus.New alongside validated Settings, a Serializer, and a Resolver.

# Usage

	builder := bus.NewBuilder().WithInstanceID("orders-service")
	bus.Publish[OrderPlaced](builder, "orders")
	bus.SubscribeTo[OrderPlaced, *OrderWatcher](builder, "orders", "order-watchers")
	bus.Publish[PriceRequest](builder, "price-requests")
	builder.ExpectRequestResponses("orders-replies", "orders-replies-group", 10*time.Second)
	settings, err := builder.Build()

	registry := bus.NewRegistry()
	bus.RegisterHandler[*OrderWatcher](registry, &OrderWatcher{})

	b, err := bus.New(settings, transport, bus.NewJSONSerializer(), registry)
	defer b.Dispose()

	err = b.Publish(ctx, OrderPlaced{OrderID: "o-1"})
	resp, err := bus.Send[PriceResponse](ctx, b, PriceRequest{SKU: "widget"}, 0)
*/
package bus
