// Package kafka is a bus.Transport backed by github.com/IBM/sarama.
//
// Producing uses a resilience.CircuitBreaker-wrapped sarama.SyncProducer so
// transient broker unavailability is retried with backoff before a publish
// fails. Consuming runs one sarama.ConsumerGroup per bus.Transport.
// NewGroupConsumer call, with a sarama.ConsumerGroupHandler that fans each
// claimed partition out to a partitionProcessor: handler invocations for a
// partition run with bounded concurrency (TopicConsumeSpec.Instances), and
// offsets are committed in completion order, once every message up to and
// including a given offset has finished processing (checkpoint.go /
// watermark.go), never before. Auto-commit is disabled; a checkpoint fire
// calls session.MarkOffset to update the session's offset manager followed
// by session.Commit to flush it to the broker — MarkOffset alone never
// reaches Kafka.
package kafka
