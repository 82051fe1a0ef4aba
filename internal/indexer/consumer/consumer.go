// Package consumer reads document ingest events from Kafka and adds them to
// the search server.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// IngestEvent is the JSON payload of the document-ingest topic.
type IngestEvent struct {
	ID      *int         `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// Indexer is the write side of the search server.
type Indexer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	if err := ic.consumer.Start(ctx); err != nil {
		return fmt.Errorf("index consumer: %w", err)
	}
	ic.logger.Info("index consumer stopped", "processed", ic.consumer.Processed())
	return nil
}

// HandleMessage returns a Kafka MessageHandler that adds every ingest event
// to idx. Malformed or rejected documents are logged and acknowledged:
// retrying them would fail the same way.
func HandleMessage(idx Indexer) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if event.ID == nil {
			logger.Error("ingest event without document id", "key", string(key))
			return nil
		}
		if err := idx.AddDocument(*event.ID, event.Text, event.Status, event.Ratings); err != nil {
			logger.Warn("document rejected",
				"doc_id", *event.ID,
				"error", err,
			)
			return nil
		}
		logger.Debug("document indexed",
			"doc_id", *event.ID,
			"status", event.Status,
		)
		return nil
	}
}
