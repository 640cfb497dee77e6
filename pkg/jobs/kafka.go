package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used for dispatch
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the job producer
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// NewKafkaWriter creates a producer that hashes keys to partitions, so jobs
// for one channel stay ordered.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}
}

// KafkaDispatcher publishes kick jobs to a Kafka topic
type KafkaDispatcher struct {
	writer MessageWriter
}

// NewKafkaDispatcher wraps a writer
func NewKafkaDispatcher(writer MessageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{writer: writer}
}

// Dispatch writes one message keyed by channel id. The scheduled delay
// travels in the payload and a header; the consumer honours it.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, job *KickUsersJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	payload, err := job.Marshal()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(job.ChannelID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "job_id", Value: []byte(job.ID)},
			{Key: "run_at", Value: []byte(job.RunAt.Format(time.RFC3339Nano))},
		},
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish kick job: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
