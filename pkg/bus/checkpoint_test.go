package bus_test

import (
	"testing"
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
)

func TestCheckpointTriggerFiresOnCount(t *testing.T) {
	trig := bus.NewCheckpointTrigger(3, time.Hour)

	assert.False(t, trig.Increment())
	assert.False(t, trig.Increment())
	assert.True(t, trig.Increment())
}

func TestCheckpointTriggerFiresOnDuration(t *testing.T) {
	trig := bus.NewCheckpointTrigger(1000, time.Millisecond)

	assert.False(t, trig.Increment())
	time.Sleep(5 * time.Millisecond)
	assert.True(t, trig.Increment())
}

func TestCheckpointTriggerResetsBothCountersOnFire(t *testing.T) {
	trig := bus.NewCheckpointTrigger(2, time.Hour)

	assert.False(t, trig.Increment())
	assert.True(t, trig.Increment())
	// running count was reset; need 2 more to fire again.
	assert.False(t, trig.Increment())
	assert.True(t, trig.Increment())
}

func TestCheckpointTriggerResetIsIdempotent(t *testing.T) {
	trig := bus.NewCheckpointTrigger(2, time.Hour)
	trig.Reset()
	trig.Reset()
	assert.False(t, trig.Increment())
}
