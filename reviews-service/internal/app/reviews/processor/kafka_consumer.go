package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/service"

	"github.com/segmentio/kafka-go"
)

const serviceName = "reviews-worker"

// errMalformedEvent - сообщение не разбирается, повторная обработка не поможет
var errMalformedEvent = errors.New("malformed review event")

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer обрабатывает события из топика review_events
type KafkaConsumer struct {
	reader   messageReader
	handler  service.EventHandler
	topic    string
	groupID  string
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewKafkaConsumer(brokers []string, topic, groupID string, handler service.EventHandler) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
		// Offset коммитим вручную после обработки
		CommitInterval: 0,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, handler)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, handler service.EventHandler) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		handler:  handler,
		topic:    topic,
		groupID:  groupID,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Пустой топик - просто ждем дальше
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				logger.Error().Err(err).Msg("Error fetching message")
				metrics.RecordKafkaError(serviceName, c.topic, "fetch")
				c.pause(time.Second)
				continue
			}

			timer := metrics.NewTimer()
			err = c.processMessage(ctx, message)
			switch {
			case errors.Is(err, errMalformedEvent):
				// Битое сообщение пропускаем, иначе партиция встанет
				logger.Warn().Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Skipping malformed message")
				metrics.RecordKafkaError(serviceName, c.topic, "decode")
			case err != nil:
				// Offset не коммитим - сообщение будет обработано повторно
				logger.Error().Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Error processing message")
				metrics.RecordKafkaError(serviceName, c.topic, "process")
				c.pause(time.Second)
				continue
			default:
				metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, timer.Duration())
			}

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.Error().Err(err).Msg("Error committing message")
				metrics.RecordKafkaError(serviceName, c.topic, "commit")
			}
		}
	}
}

func (c *KafkaConsumer) pause(d time.Duration) {
	select {
	case <-c.stopChan:
	case <-time.After(d):
	}
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("artist_id", event.ArtistID.String()).
		Str("event_id", event.EventID.String()).
		Int64("offset", message.Offset).
		Msg("Received review event")

	if err := c.handler.HandleEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to handle review event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
