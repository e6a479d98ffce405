package bus

import (
	"time"

	"github.com/chris-alexander-pop/system-design-library/pkg/config"
)

// BootstrapConfig is the environment-sourced configuration for wiring a
// bus at process startup, loaded via config.Load[BootstrapConfig]. It
// covers only connection/transport concerns; topic/group/handler
// registrations are code, not config (see Builder).
type BootstrapConfig struct {
	// InstanceID identifies this process instance in logs and traces.
	InstanceID string `env:"BUS_INSTANCE_ID" env-default:"local"`

	// Transport selects which adapter New should be wired against.
	Transport string `env:"BUS_TRANSPORT" env-default:"memory" validate:"oneof=kafka redis memory"`

	// DefaultTimeout bounds Send calls that specify no explicit timeout.
	DefaultTimeout time.Duration `env:"BUS_DEFAULT_TIMEOUT" env-default:"30s"`

	Kafka KafkaConfig
	Redis RedisConfig
}

// KafkaConfig configures the Kafka transport. Mirrored (not imported) by
// pkg/bus/kafka.Config so pkg/bus stays free of the sarama dependency.
type KafkaConfig struct {
	Brokers         []string      `env:"BUS_KAFKA_BROKERS" env-separator:","`
	ClientID        string        `env:"BUS_KAFKA_CLIENT_ID" env-default:"bus"`
	ProducerTimeout time.Duration `env:"BUS_KAFKA_PRODUCER_TIMEOUT" env-default:"10s"`
}

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig struct {
	Server     string        `env:"BUS_REDIS_SERVER" env-default:"localhost:6379"`
	Password   string        `env:"BUS_REDIS_PASSWORD"`
	DB         int           `env:"BUS_REDIS_DB" env-default:"0"`
	SyncTimeout time.Duration `env:"BUS_REDIS_SYNC_TIMEOUT" env-default:"5s"`
}

// LoadBootstrapConfig reads BootstrapConfig from .env/environment variables
// and validates it, via pkg/config.Load.
func LoadBootstrapConfig() (BootstrapConfig, error) {
	var cfg BootstrapConfig
	if err := config.Load(&cfg); err != nil {
		return BootstrapConfig{}, ErrInvalidConfiguration(err.Error())
	}
	return cfg, nil
}
