// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/segmentio/kafka-go"
)

const (
	kafkaWriteTimeout = 5 * time.Second
	kafkaMaxAttempts  = 3

	headerEventType = "event_type"
)

// messageWriter is the subset of *kafka.Writer used by the bus.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the subset of *kafka.Reader used by the bus.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaBus struct {
	writer messageWriter
	reader messageReader

	logger *logger.Logger
}

// NewKafkaBus returns a [Bus] over a Kafka topic. Messages are keyed by
// booking id so that the events of one booking stay ordered within a
// partition. Consumers join the configured consumer group.
func NewKafkaBus(cfg config.Kafka, logger *logger.Logger) Bus {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  kafkaMaxAttempts,
		WriteTimeout: kafkaWriteTimeout,
		BatchTimeout: 10 * time.Millisecond,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error().Str("func", "kafka.Reader").Msgf(msg, args...)
		}),
	})

	return newKafkaBus(writer, reader, logger)
}

func newKafkaBus(writer messageWriter, reader messageReader, logger *logger.Logger) *kafkaBus {
	return &kafkaBus{writer: writer, reader: reader, logger: logger}
}

// Publish implements [Publisher].
func (b *kafkaBus) Publish(ctx context.Context, event models.BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(event.BookingID),
		Value:   value,
		Time:    event.OccurredAt,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(event.Type)}},
	}

	if err = b.writer.WriteMessages(ctx, msg); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "*kafkaBus.Publish").
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID).
			Msg("failed to publish event")
		if errors.Is(err, io.ErrClosedPipe) {
			return ErrBusClosed
		}
		return fmt.Errorf("publishing event: %w", err)
	}

	return nil
}

// Consume implements [Consumer]. The offset of a message is committed after
// the handler returns, also when it failed: a broken email must not stall the
// partition.
func (b *kafkaBus) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrBusClosed
			}
			return fmt.Errorf("fetching event: %w", err)
		}

		event, err := decodeEvent(msg)
		if err != nil {
			b.logger.Err(err).Str("func", "*kafkaBus.Consume").Int64("offset", msg.Offset).Msg("skipping message")
		} else if err = handle(ctx, event); err != nil {
			b.logger.Err(err).
				Str("func", "*kafkaBus.Consume").
				Str("event_id", event.ID).
				Str("event_type", string(event.Type)).
				Msg("event handler failed")
		}

		if err = b.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Err(err).Str("func", "*kafkaBus.Consume").Int64("offset", msg.Offset).Msg("failed to commit offset")
		}
	}
}

// Close implements [Bus].
func (b *kafkaBus) Close() error {
	return errors.Join(b.writer.Close(), b.reader.Close())
}

func decodeEvent(msg kafka.Message) (models.BookingEvent, error) {
	var event models.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return models.BookingEvent{}, fmt.Errorf("%w: %w", ErrDecodingEvent, err)
	}
	if event.Type == "" || event.BookingID == "" {
		return models.BookingEvent{}, fmt.Errorf("%w: missing type or booking id", ErrDecodingEvent)
	}
	return event, nil
}

// NewBus picks the Kafka bus when brokers are configured and the in-process
// bus otherwise.
func NewBus(cfg config.Kafka, logger *logger.Logger) Bus {
	if cfg.Enabled() {
		logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("publishing booking events to kafka")
		return NewKafkaBus(cfg, logger)
	}
	logger.Info().Msg("kafka is not configured; using the in-process event bus")
	return NewMemoryBus(DefaultMemoryBufferSize, logger)
}
