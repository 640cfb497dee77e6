package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageReader is the part of *kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReaderConfig configures the trigger topic reader
type KafkaReaderConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	CommitInterval time.Duration
}

// NewKafkaReader creates a consumer-group reader for the trigger topic
func NewKafkaReader(cfg KafkaReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    kafka.FirstOffset,
	})
}

// Consumer feeds triggers from a topic into a Router
type Consumer struct {
	reader MessageReader
	router *Router
	retry  *RetryPolicy
	logger logrus.FieldLogger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewConsumer creates a consumer
func NewConsumer(reader MessageReader, router *Router, retry *RetryPolicy, logger logrus.FieldLogger) *Consumer {
	if retry == nil {
		retry = NewRetryPolicy(DefaultRetryConfig())
	}
	return &Consumer{
		reader: reader,
		router: router,
		retry:  retry,
		logger: logger.WithField("component", "trigger_consumer"),
		sleep:  sleepContext,
	}
}

// Run consumes until ctx is cancelled. Each message is committed after it
// was handled or given up on, so a restart resumes after it.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Trigger consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Trigger consumer stopped")
				return nil
			}
			return fmt.Errorf("failed to fetch trigger: %w", err)
		}

		c.handle(ctx, msg)
		if ctx.Err() != nil {
			// left uncommitted so the next run sees it again
			c.logger.Info("Trigger consumer stopped")
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit trigger offset: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	logger := c.logger.WithFields(logrus.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	trigger, err := Decode(msg.Value)
	if err != nil {
		logger.WithError(err).Warn("Dropping undecodable trigger")
		return
	}
	logger = logger.WithFields(logrus.Fields{"trigger_id": trigger.ID, "type": trigger.Type})

	for attempt := 1; ; attempt++ {
		_, err := c.router.Route(ctx, trigger)
		if err == nil {
			return
		}
		if !c.retry.ShouldRetry(attempt, err) {
			if retryable(err) {
				logger.WithError(err).WithField("attempts", attempt).Error("Giving up on trigger")
			} else {
				logger.WithError(err).Warn("Dropping trigger")
			}
			return
		}

		delay := c.retry.NextRetryDelay(attempt)
		logger.WithError(err).WithField("retry_in", delay).Warn("Trigger failed, retrying")
		if err := c.sleep(ctx, delay); err != nil {
			return
		}
	}
}

// Close closes the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
