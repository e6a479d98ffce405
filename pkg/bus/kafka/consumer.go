package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/logger"
)

// groupConsumer implements bus.GroupConsumer over a single
// sarama.ConsumerGroup, re-joining after every rebalance until Close.
type groupConsumer struct {
	group   sarama.ConsumerGroup
	groupID string
	topics  []string
	handler *consumerGroupHandler

	cancel context.CancelFunc
	done   chan struct{}
}

func newGroupConsumer(group sarama.ConsumerGroup, groupID string, specs []bus.TopicConsumeSpec) *groupConsumer {
	byTopic := make(map[string]bus.TopicConsumeSpec, len(specs))
	topics := make([]string, 0, len(specs))
	for _, spec := range specs {
		byTopic[spec.Topic] = spec
		topics = append(topics, spec.Topic)
	}
	return &groupConsumer{
		group:   group,
		groupID: groupID,
		topics:  topics,
		handler: &consumerGroupHandler{specsByTopic: byTopic},
		done:    make(chan struct{}),
	}
}

func (c *groupConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	ready := make(chan struct{})
	c.handler.onReady = func() {
		select {
		case <-ready:
		default:
			close(ready)
		}
	}

	go func() {
		defer close(c.done)
		for {
			if runCtx.Err() != nil {
				return
			}
			if err := c.group.Consume(runCtx, c.topics, c.handler); err != nil {
				if runCtx.Err() != nil {
					return
				}
				logger.L().ErrorContext(runCtx, "kafka consumer group session ended with error", "group", c.groupID, "error", err)
				select {
				case <-runCtx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}
	}()

	select {
	case <-ready:
		return nil
	case <-time.After(30 * time.Second):
		return bus.ErrInvalidConfiguration("timed out waiting for kafka consumer group to become ready")
	case <-runCtx.Done():
		return runCtx.Err()
	}
}

func (c *groupConsumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
	return c.group.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler, spawning one
// partitionProcessor per claim and tearing it down cleanly on rebalance.
type consumerGroupHandler struct {
	specsByTopic map[string]bus.TopicConsumeSpec
	onReady      func()

	mu         sync.Mutex
	processors []*partitionProcessor
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.onReady != nil {
		h.onReady()
	}
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	spec, ok := h.specsByTopic[claim.Topic()]
	if !ok {
		return nil
	}

	processor := newPartitionProcessor(spec, session, claim)
	h.mu.Lock()
	h.processors = append(h.processors, processor)
	h.mu.Unlock()

	// run blocks until claim.Messages() closes, which sarama guarantees
	// happens only after the partition is revoked or the session ends; it
	// drains all in-flight handlers before returning, so a rebalance never
	// commits past what finished processing.
	processor.run(session.Context())
	return nil
}
