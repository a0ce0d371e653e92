package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/breakup-etl/internal/config"
	"github.com/couchcryptid/breakup-etl/internal/domain"
	"github.com/couchcryptid/breakup-etl/internal/observability"
)

// Message kinds carried in the "kind" header.
const (
	KindPoint  = "point_summary"
	KindRollup = "rollup_entry"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PointSummary is the per-point payload. The full series stays in the
// spreadsheet; consumers get the dates that drive restrictions.
type PointSummary struct {
	RunID     string         `json:"run_id"`
	Point     domain.Point   `json:"point"`
	CreatedAt time.Time      `json:"created_at"`
	Days      int            `json:"days"`
	Summary   domain.Summary `json:"summary"`
	Events    []domain.Event `json:"events"`
}

// Writer publishes point summaries and rollup entries to one topic, keyed by
// group id. It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// LoadPoint publishes the summary of one scanned point.
func (w *Writer) LoadPoint(ctx context.Context, out domain.PointOutput) error {
	msg, err := pointMessage(out)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish point %s: %w", out.Point.GroupID, err)
	}
	w.metrics.MessagesProduced.Inc()
	return nil
}

// LoadRollup publishes every rollup entry in a single WriteMessages call.
func (w *Writer) LoadRollup(ctx context.Context, runID string, entries []domain.RollupEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := domain.Today()
	msgs := make([]kafkago.Message, len(entries))
	for i := range entries {
		msg, err := rollupMessage(runID, now, entries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish rollup: %w", err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Debug("rollup published", "run_id", runID, "entries", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func pointMessage(out domain.PointOutput) (kafkago.Message, error) {
	data, err := json.Marshal(PointSummary{
		RunID:     out.RunID,
		Point:     out.Point,
		CreatedAt: out.CreatedAt,
		Days:      len(out.Result.Records),
		Summary:   out.Result.Summary,
		Events:    out.Result.Events,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize point summary: %w", err)
	}
	return newMessage(KindPoint, out.RunID, out.CreatedAt, out.Point.GroupID, data), nil
}

func rollupMessage(runID string, at time.Time, e domain.RollupEntry) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize rollup entry: %w", err)
	}
	return newMessage(KindRollup, runID, at, e.GroupID, data), nil
}

func newMessage(kind, runID string, at time.Time, key string, value []byte) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "processed_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}
}
