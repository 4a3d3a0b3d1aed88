package consumer

import (
	"Mnemos/backend/go/internal/database/kafka"
	"Mnemos/backend/go/internal/memory/service"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaConsumer pulls conversation messages off the topic and hands them
// to the MemoryService. Offsets are committed after processing, including
// for messages the pipeline could not use: the update path is best effort,
// so a bad message is logged and skipped rather than redelivered forever.
type KafkaConsumer struct {
	kafkaClient   *kafka.Client
	memoryService *service.MemoryService
	logger        *logger.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(kafkaClient *kafka.Client, memoryService *service.MemoryService, log *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		kafkaClient:   kafkaClient,
		memoryService: memoryService,
		logger:        log,
	}
}

// Start launches the consume loop in its own goroutine. The loop exits
// when ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *KafkaConsumer) run(ctx context.Context) {
	for {
		msg, err := c.kafkaClient.Reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("kafka consumer stopped")
				return
			}
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_fetch"}).
				Error("failed to fetch message")
			continue
		}

		var conversation models.ConversationMessage
		if err := json.Unmarshal(msg.Value, &conversation); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_decode"}).
				Error("failed to decode conversation message, skipping")
			c.commit(ctx, msg)
			continue
		}
		if conversation.UserID == "" || conversation.Text == "" {
			c.logger.Warn("conversation message missing user_id or text, skipping")
			c.commit(ctx, msg)
			continue
		}

		now := conversation.Timestamp
		if now.IsZero() {
			now = time.Now().UTC()
		}
		result := c.memoryService.ApplyMessage(ctx, conversation.UserID, conversation.Text, now)
		c.logger.WithUser(conversation.UserID).WithPayload(map[string]interface{}{
			"processed": result.Processed,
			"total":     result.Attempted,
		}).Debug("conversation message handled")

		c.commit(ctx, msg)
	}
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.kafkaClient.Reader.CommitMessages(ctx, msg); err != nil {
		c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_commit"}).
			Error("failed to commit message")
	}
}
