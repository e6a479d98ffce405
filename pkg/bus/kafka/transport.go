package kafka

import (
	"sync"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
)

// Transport implements bus.Transport over github.com/IBM/sarama.
type Transport struct {
	cfg    Config
	client sarama.Client

	producerMu     sync.Mutex
	syncProducer   sarama.SyncProducer
	consumerGroups []sarama.ConsumerGroup
}

// New dials brokers and returns a ready Transport.
func New(cfg Config) (*Transport, error) {
	saramaCfg := cfg.saramaConfig()
	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, bus.ErrInvalidConfiguration("failed to create kafka client: " + err.Error())
	}
	return &Transport{cfg: cfg, client: client}, nil
}

func (t *Transport) Producer(topic string) (bus.Producer, error) {
	t.producerMu.Lock()
	defer t.producerMu.Unlock()

	if t.syncProducer == nil {
		sp, err := sarama.NewSyncProducerFromClient(t.client)
		if err != nil {
			return nil, bus.ErrPublishFailed(topic, err)
		}
		t.syncProducer = sp
	}
	return newProducer(t.cfg, t.syncProducer, topic), nil
}

func (t *Transport) NewGroupConsumer(groupID string, specs []bus.TopicConsumeSpec) (bus.GroupConsumer, error) {
	group, err := sarama.NewConsumerGroupFromClient(groupID, t.client)
	if err != nil {
		return nil, bus.ErrInvalidConfiguration("failed to create kafka consumer group " + groupID + ": " + err.Error())
	}

	t.producerMu.Lock()
	t.consumerGroups = append(t.consumerGroups, group)
	t.producerMu.Unlock()

	return newGroupConsumer(group, groupID, specs), nil
}

func (t *Transport) Close() error {
	t.producerMu.Lock()
	defer t.producerMu.Unlock()

	var firstErr error
	for _, group := range t.consumerGroups {
		if err := group.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.syncProducer != nil {
		if err := t.syncProducer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := t.client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
