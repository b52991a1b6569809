// Package notify publishes the "sync completed" signal for each entry point.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// SyncCompleted is emitted once per finished entry point run.
type SyncCompleted struct {
	RunID      string    `json:"run_id"`
	Entity     string    `json:"entity"`
	Status     string    `json:"status"`
	Fetched    int       `json:"fetched"`
	Duplicates int       `json:"duplicates"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

type Notifier interface {
	SyncCompleted(ctx context.Context, evt SyncCompleted) error
}

// LogNotifier writes the signal to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SyncCompleted(_ context.Context, evt SyncCompleted) error {
	n.logger.Info().
		Str("run_id", evt.RunID).
		Str("entity", evt.Entity).
		Str("status", evt.Status).
		Int("fetched", evt.Fetched).
		Int("duplicates", evt.Duplicates).
		Int("inserted", evt.Inserted).
		Int("updated", evt.Updated).
		Int("skipped", evt.Skipped).
		Time("finished_at", evt.FinishedAt).
		Msg("sync completed")
	return nil
}

// messageWriter is the part of kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes the signal as JSON keyed by entity.
type KafkaNotifier struct {
	writer messageWriter
	logger zerolog.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

func (n *KafkaNotifier) SyncCompleted(ctx context.Context, evt SyncCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal sync completed event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.Entity),
		Value: payload,
		Time:  evt.FinishedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("sync.completed")},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish sync completed event: %w", err)
	}
	n.logger.Debug().Str("entity", evt.Entity).Str("run_id", evt.RunID).Msg("sync completed event published")
	return nil
}

func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}

// Fanout delivers to every notifier and returns the first error.
type Fanout []Notifier

func (f Fanout) SyncCompleted(ctx context.Context, evt SyncCompleted) error {
	var firstErr error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.SyncCompleted(ctx, evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
