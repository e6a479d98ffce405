package bus_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSubscriber struct{ received []any }

func (e *echoSubscriber) OnMessage(ctx context.Context, topic string, message any) error {
	e.received = append(e.received, message)
	return nil
}

func TestRegistryResolvesRegisteredHandler(t *testing.T) {
	registry := bus.NewRegistry()
	handler := &echoSubscriber{}
	bus.RegisterHandler[*echoSubscriber](registry, handler)

	resolved, err := registry.Resolve(reflect.TypeOf(handler))
	require.NoError(t, err)
	assert.Same(t, handler, resolved)
}

func TestRegistryUnknownTypeErrors(t *testing.T) {
	registry := bus.NewRegistry()
	_, err := registry.Resolve(reflect.TypeOf(&echoSubscriber{}))
	assert.Error(t, err)
}
