package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// Config configures the Kafka transport. Brokers, ClientID and
// ProducerTimeout match bus.KafkaConfig, which callers typically load via
// bus.BootstrapConfig; the remaining fields have no bus.KafkaConfig
// counterpart.
type Config struct {
	Brokers  []string
	ClientID string

	// ProducerTimeout bounds a whole Publish, retries included: no new send
	// attempt or backoff wait starts once it has elapsed. A
	// SyncProducer.SendMessage call already in progress is not interrupted.
	ProducerTimeout time.Duration

	// SessionTimeout and HeartbeatInterval tune consumer-group liveness.
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration

	// InitialOffset selects where a new consumer group starts: "oldest" or
	// "newest" (default).
	InitialOffset string

	// FailureThreshold and RecoveryTimeout tune the producer's circuit
	// breaker. A zero value uses resilience.DefaultCircuitBreakerConfig.
	FailureThreshold int64
	RecoveryTimeout  time.Duration
}

func (c Config) saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = c.ClientID
	if cfg.ClientID == "" {
		cfg.ClientID = "bus"
	}

	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 0 // resilience.Retry drives retries, not sarama's internal loop

	cfg.Consumer.Return.Errors = true
	// Disabled so the only commits are the explicit session.Commit() calls
	// partitionProcessor makes after a checkpoint fires.
	cfg.Consumer.Offsets.AutoCommit.Enable = false
	if c.InitialOffset == "oldest" {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if c.SessionTimeout > 0 {
		cfg.Consumer.Group.Session.Timeout = c.SessionTimeout
	}
	if c.HeartbeatInterval > 0 {
		cfg.Consumer.Group.Heartbeat.Interval = c.HeartbeatInterval
	}
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin

	return cfg
}
