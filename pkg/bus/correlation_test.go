package bus_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationRegistryResolve(t *testing.T) {
	reg := bus.NewCorrelationRegistry()
	_, done := reg.Register("id-1", reflect.TypeOf(""), time.Now().Add(time.Minute))

	require.True(t, reg.TryResolve("id-1", "pong"))
	result := <-done
	assert.Equal(t, "pong", result.Response)
	assert.Equal(t, 0, reg.Len())
}

func TestCorrelationRegistryUnknownIDDropped(t *testing.T) {
	reg := bus.NewCorrelationRegistry()
	assert.False(t, reg.TryResolve("never-registered", "x"))
	assert.False(t, reg.TryFail("never-registered", errors.New("boom")))
}

func TestCorrelationRegistrySweepExpired(t *testing.T) {
	reg := bus.NewCorrelationRegistry()
	_, done := reg.Register("id-1", reflect.TypeOf(""), time.Now().Add(-time.Second))

	reg.SweepExpired(time.Now(), func(id string) error {
		return bus.ErrRequestTimeout(id)
	})

	result := <-done
	require.Error(t, result.Err)
	assert.Equal(t, 0, reg.Len())
}

func TestCorrelationRegistryFailAll(t *testing.T) {
	reg := bus.NewCorrelationRegistry()
	_, done1 := reg.Register("id-1", reflect.TypeOf(""), time.Now().Add(time.Minute))
	_, done2 := reg.Register("id-2", reflect.TypeOf(""), time.Now().Add(time.Minute))

	reg.FailAll(func(id string) error { return bus.ErrBusShutdown() })

	r1 := <-done1
	r2 := <-done2
	assert.Error(t, r1.Err)
	assert.Error(t, r2.Err)
	assert.Equal(t, 0, reg.Len())
}
