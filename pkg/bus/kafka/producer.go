package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/resilience"
)

// producer publishes to a single topic via a shared sarama.SyncProducer,
// retrying transient errors through a circuit breaker.
type producer struct {
	topic   string
	client  sarama.SyncProducer
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

func newProducer(cfg Config, client sarama.SyncProducer, topic string) *producer {
	cbCfg := resilience.DefaultCircuitBreakerConfig("kafka-producer-" + topic)
	if cfg.FailureThreshold > 0 {
		cbCfg.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.RecoveryTimeout > 0 {
		cbCfg.Timeout = cfg.RecoveryTimeout
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.RetryIf = isTransient

	timeout := cfg.ProducerTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &producer{
		topic:   topic,
		client:  client,
		breaker: resilience.NewCircuitBreaker(cbCfg),
		retry:   retryCfg,
		timeout: timeout,
	}
}

func (p *producer) Publish(ctx context.Context, out bus.OutboundMessage) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := toProducerMessage(p.topic, out)

	err := resilience.RetryWithCircuitBreaker(ctx, p.breaker, p.retry, func(ctx context.Context) error {
		_, _, sendErr := p.client.SendMessage(msg)
		return sendErr
	})
	if err != nil {
		return bus.ErrPublishFailed(p.topic, err)
	}
	return nil
}

func (p *producer) Close() error {
	return nil // the underlying sarama.SyncProducer is owned and closed by the Transport.
}

func toProducerMessage(topic string, out bus.OutboundMessage) *sarama.ProducerMessage {
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(out.Payload),
		Timestamp: time.Now(),
	}
	if len(out.Key) > 0 {
		msg.Key = sarama.ByteEncoder(out.Key)
	}
	if out.Partition >= 0 {
		msg.Partition = out.Partition
	}
	for k, v := range out.Headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return msg
}

// isTransient reports whether err is worth retrying: broker-availability
// and timeout errors, not client misconfiguration or message-too-large.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, sarama.ErrNotEnoughReplicas),
		errors.Is(err, sarama.ErrNotEnoughReplicasAfterAppend),
		errors.Is(err, sarama.ErrLeaderNotAvailable),
		errors.Is(err, sarama.ErrNotLeaderForPartition),
		errors.Is(err, sarama.ErrRequestTimedOut),
		errors.Is(err, sarama.ErrBrokerNotAvailable),
		errors.Is(err, sarama.ErrOutOfBrokers):
		return true
	default:
		return false
	}
}
