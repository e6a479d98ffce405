// Package bustest is a conformance suite run against every bus.Transport
// implementation, mirroring the teacher pattern of a shared
// tests.RunBrokerTests helper invoked from each adapter's _test.go.
package bustest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	ID string
}

type request struct {
	Question string
}

type response struct {
	Answer string
}

type recorder struct {
	mu   sync.Mutex
	seen []event
}

func (r *recorder) OnMessage(ctx context.Context, topic string, message any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, message.(event))
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

type echoHandler struct{}

func (echoHandler) OnRequest(ctx context.Context, req any) (any, error) {
	return response{Answer: req.(request).Question + "?"}, nil
}

// RunTransportTests exercises publish/subscribe delivery and
// request/response correlation against transport, failing t on any
// violation. A fresh topic/group namespace is used per call so the suite
// can run multiple times against the same live broker without collision;
// callers should still prefer a disposable broker per test run.
func RunTransportTests(t *testing.T, transport bus.Transport) {
	t.Helper()

	t.Run("PublishSubscribe", func(t *testing.T) {
		runPublishSubscribe(t, transport)
	})
	t.Run("RequestResponse", func(t *testing.T) {
		runRequestResponse(t, transport)
	})
}

func runPublishSubscribe(t *testing.T, transport bus.Transport) {
	t.Helper()
	ns := uniqueNamespace()

	builder := bus.NewBuilder()
	bus.Publish[event](builder, ns+"-events")
	bus.SubscribeTo[event, *recorder](builder, ns+"-events", ns+"-watchers")
	settings, err := builder.Build()
	require.NoError(t, err)

	registry := bus.NewRegistry()
	rec := &recorder{}
	bus.RegisterHandler[*recorder](registry, rec)

	b, err := bus.New(settings, transport, bus.NewJSONSerializer(), registry)
	require.NoError(t, err)
	defer b.Dispose()

	require.NoError(t, b.Publish(context.Background(), event{ID: "1"}))
	require.NoError(t, b.Publish(context.Background(), event{ID: "2"}))

	require.Eventually(t, func() bool { return rec.count() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func runRequestResponse(t *testing.T, transport bus.Transport) {
	t.Helper()
	ns := uniqueNamespace()

	builder := bus.NewBuilder()
	bus.Publish[request](builder, ns+"-requests")
	bus.Handle[request, response, echoHandler](builder, ns+"-requests", ns+"-service")
	builder.ExpectRequestResponses(ns+"-replies", ns+"-replies-group", 5*time.Second)
	settings, err := builder.Build()
	require.NoError(t, err)

	registry := bus.NewRegistry()
	bus.RegisterHandler[echoHandler](registry, echoHandler{})

	b, err := bus.New(settings, transport, bus.NewJSONSerializer(), registry)
	require.NoError(t, err)
	defer b.Dispose()

	resp, err := bus.Send[response](context.Background(), b, request{Question: "are we conformant"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "are we conformant?", resp.Answer)
}

var namespaceCounter struct {
	mu sync.Mutex
	n  int
}

// uniqueNamespace hands out a distinct topic/group prefix per call within a
// process, so PublishSubscribe and RequestResponse can run against the
// same live broker without their topics/groups colliding.
func uniqueNamespace() string {
	namespaceCounter.mu.Lock()
	defer namespaceCounter.mu.Unlock()
	namespaceCounter.n++
	return "bustest-" + itoa(namespaceCounter.n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}
