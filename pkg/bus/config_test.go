package bus_test

import (
	"testing"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBootstrapConfigAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("BUS_TRANSPORT", "kafka")
	t.Setenv("BUS_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := bus.LoadBootstrapConfig()
	require.NoError(t, err)

	assert.Equal(t, "kafka", cfg.Transport)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "local", cfg.InstanceID)
}

func TestLoadBootstrapConfigRejectsInvalidTransport(t *testing.T) {
	t.Setenv("BUS_TRANSPORT", "carrier-pigeon")
	_, err := bus.LoadBootstrapConfig()
	assert.Error(t, err)
}
