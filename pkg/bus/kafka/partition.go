package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/chris-alexander-pop/system-design-library/pkg/logger"
)

// partitionProcessor drives handler invocation for one claimed partition:
// messages are dispatched to up to `instances` concurrent goroutines, and
// each completion advances a watermark; a checkpoint.CheckpointTrigger
// decides when the watermark is actually committed. Because AutoCommit is
// disabled (see Config.saramaConfig), MarkOffset alone only updates the
// session's in-memory offset manager — session.Commit() is what flushes it
// to the broker, so both are called together when the trigger fires.
type partitionProcessor struct {
	tp         bus.TopicPartition
	spec       bus.TopicConsumeSpec
	session    sarama.ConsumerGroupSession
	claim      sarama.ConsumerGroupClaim
	watermark  *watermark
	checkpoint *bus.CheckpointTrigger
	sem        chan struct{}
	wg         sync.WaitGroup
}

func newPartitionProcessor(spec bus.TopicConsumeSpec, session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) *partitionProcessor {
	instances := spec.Instances
	if instances < 1 {
		instances = 1
	}
	return &partitionProcessor{
		tp:         bus.TopicPartition{Topic: claim.Topic(), Partition: claim.Partition()},
		spec:       spec,
		session:    session,
		claim:      claim,
		watermark:  newWatermark(claim.InitialOffset()),
		checkpoint: bus.NewCheckpointTrigger(spec.CheckpointCount, spec.CheckpointDuration),
		sem:        make(chan struct{}, instances),
	}
}

// run consumes claim.Messages() until the channel closes (rebalance revoke
// or session end), dispatching each message with bounded concurrency. It
// blocks until every in-flight handler has finished. It does not commit on
// exit: offsets completed since the last checkpoint fire are not committed
// and are redelivered to the partition's next owner.
func (p *partitionProcessor) run(ctx context.Context) {
	for msg := range p.claim.Messages() {
		p.watermark.mu.Lock()
		if p.watermark.next < 0 {
			// a claim with no committed offset starts at the OffsetNewest/
			// OffsetOldest sentinel; track from the first delivered offset.
			p.watermark.next = msg.Offset
		}
		p.watermark.mu.Unlock()

		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			p.wg.Wait()
			return
		}

		p.wg.Add(1)
		go func(msg *sarama.ConsumerMessage) {
			defer p.wg.Done()
			defer func() { <-p.sem }()
			p.handle(ctx, msg)
		}(msg)
	}
	p.wg.Wait()
}

func (p *partitionProcessor) handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	in := bus.InboundMessage{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Payload:   msg.Value,
		Headers:   headersOf(msg.Headers),
	}

	if err := p.spec.Handler(ctx, in); err != nil {
		logger.L().ErrorContext(ctx, "kafka handler failed", "topic", p.tp.Topic, "partition", p.tp.Partition, "offset", msg.Offset, "error", err)
	}

	mark, advanced := p.watermark.complete(msg.Offset)
	if !advanced {
		return
	}
	if p.checkpoint.Increment() {
		p.session.MarkOffset(p.tp.Topic, p.tp.Partition, mark+1, "")
		p.session.Commit()
	}
}

func headersOf(raw []*sarama.RecordHeader) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		headers[string(h.Key)] = string(h.Value)
	}
	return headers
}
