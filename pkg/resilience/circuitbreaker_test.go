package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	})

	boom := errors.New("boom")
	failing := func(ctx context.Context) error { return boom }

	assert.ErrorIs(t, cb.Execute(context.Background(), failing), boom)
	assert.ErrorIs(t, cb.Execute(context.Background(), failing), boom)
	assert.Equal(t, resilience.StateOpen, cb.State())

	err := cb.Execute(context.Background(), failing)
	require.Error(t, err)
	assert.NotErrorIs(t, err, boom) // rejected without calling fn
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Millisecond,
	})

	boom := errors.New("boom")
	require.ErrorIs(t, cb.Execute(context.Background(), func(ctx context.Context) error { return boom }), boom)
	require.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, cb.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	assert.Equal(t, resilience.StateClosed, cb.State())
}
