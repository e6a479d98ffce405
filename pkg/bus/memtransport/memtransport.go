// Package memtransport is an in-process bus.Transport backed by buffered
// channels. It has no external dependencies and is intended for tests and
// single-process deployments: every topic's messages fan out to each
// distinct consumer group exactly once, and within a group, round-robin
// across that group's handler goroutines (mirroring Kafka's
// one-partition-per-consumer-within-a-group semantics, minus partitions).
package memtransport

import (
	"context"
	"sync"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	appErrors "github.com/chris-alexander-pop/system-design-library/pkg/errors"
)

// Config configures the in-memory transport.
type Config struct {
	// BufferSize is the per-topic-per-group channel capacity. Publish
	// blocks once a group's buffer is full, back-pressuring producers.
	BufferSize int
}

// Transport implements bus.Transport entirely in-process.
type Transport struct {
	cfg Config

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// New constructs an in-memory transport. BufferSize defaults to 64.
func New(cfg Config) *Transport {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	return &Transport{cfg: cfg, topics: make(map[string]*topic)}
}

type topic struct {
	mu     sync.Mutex
	groups map[string]*groupQueue
}

type groupQueue struct {
	ch chan bus.OutboundMessage
}

func (t *Transport) topicFor(name string) *topic {
	t.mu.Lock()
	defer t.mu.Unlock()
	tp, ok := t.topics[name]
	if !ok {
		tp = &topic{groups: make(map[string]*groupQueue)}
		t.topics[name] = tp
	}
	return tp
}

func (t *Transport) groupQueueFor(topicName, group string) *groupQueue {
	tp := t.topicFor(topicName)
	tp.mu.Lock()
	defer tp.mu.Unlock()
	gq, ok := tp.groups[group]
	if !ok {
		gq = &groupQueue{ch: make(chan bus.OutboundMessage, t.cfg.BufferSize)}
		tp.groups[group] = gq
	}
	return gq
}

// Producer returns a producer that fans each publish out to every
// consumer group currently registered against topicName. Groups
// registered after a message is published do not retroactively receive it.
func (t *Transport) Producer(topicName string) (bus.Producer, error) {
	return &producer{transport: t, topic: topicName}, nil
}

type producer struct {
	transport *Transport
	topic     string
}

func (p *producer) Publish(ctx context.Context, out bus.OutboundMessage) error {
	tp := p.transport.topicFor(p.topic)
	tp.mu.Lock()
	queues := make([]*groupQueue, 0, len(tp.groups))
	for _, gq := range tp.groups {
		queues = append(queues, gq)
	}
	tp.mu.Unlock()

	for _, gq := range queues {
		select {
		case gq.ch <- out:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *producer) Close() error { return nil }

// NewGroupConsumer builds a consumer whose Start, for each TopicConsumeSpec,
// registers the (topic, group) queue (creating it if this is the first
// subscriber) and spawns Instances goroutines reading from it.
func (t *Transport) NewGroupConsumer(groupID string, specs []bus.TopicConsumeSpec) (bus.GroupConsumer, error) {
	return &groupConsumer{transport: t, groupID: groupID, specs: specs}, nil
}

type groupConsumer struct {
	transport *Transport
	groupID   string
	specs     []bus.TopicConsumeSpec

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (c *groupConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, spec := range c.specs {
		gq := c.transport.groupQueueFor(spec.Topic, c.groupID)
		instances := spec.Instances
		if instances < 1 {
			instances = 1
		}
		for i := 0; i < instances; i++ {
			c.wg.Add(1)
			go c.run(runCtx, spec, gq)
		}
	}
	return nil
}

func (c *groupConsumer) run(ctx context.Context, spec bus.TopicConsumeSpec, gq *groupQueue) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-gq.ch:
			if !ok {
				return
			}
			in := bus.InboundMessage{
				Topic:   spec.Topic,
				Key:     out.Key,
				Payload: out.Payload,
				Headers: out.Headers,
			}
			_ = spec.Handler(ctx, in)
		}
	}
}

func (c *groupConsumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

// Close marks the transport closed; a second Close returns an error. It
// does not stop producers or group consumers created from it, which keep
// working until their own Close.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return appErrors.New(appErrors.CodeInternal, "memtransport already closed", nil)
	}
	t.closed = true
	return nil
}
