package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

type seedDocument struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Status  string `json:"status"`
	Ratings []int  `json:"ratings"`
}

var seedStatuses = []string{"ACTUAL", "ACTUAL", "ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

func generateDocuments(n int) []seedDocument {
	rng := rand.New(rand.NewPCG(42, uint64(n)))
	docs := make([]seedDocument, n)
	for i := range docs {
		words := make([]string, 3+rng.IntN(6))
		for j := range words {
			words[j] = vocabulary[rng.IntN(len(vocabulary))]
		}
		ratings := make([]int, rng.IntN(4))
		for j := range ratings {
			ratings[j] = rng.IntN(21) - 10
		}
		docs[i] = seedDocument{
			ID:      i,
			Text:    strings.Join(words, " "),
			Status:  seedStatuses[rng.IntN(len(seedStatuses))],
			Ratings: ratings,
		}
	}
	return docs
}

func seedHTTP(baseURL string, docs []seedDocument) error {
	client := &http.Client{Timeout: 10 * time.Second}
	retry := resilience.RetryConfig{MaxAttempts: 4, BaseDelay: 200 * time.Millisecond}
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = resilience.Retry(context.Background(), "seed document "+strconv.Itoa(doc.ID), retry,
			func(context.Context) (struct{}, error) {
				return struct{}{}, postDocument(client, baseURL, body)
			})
		if err != nil {
			return fmt.Errorf("adding document %d: %w", doc.ID, err)
		}
	}
	return nil
}

// postDocument treats 409 as success so that a partially seeded server can
// be seeded again.
func postDocument(client *http.Client, baseURL string, body []byte) error {
	resp, err := client.Post(baseURL+"/api/v1/documents", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func seedKafka(docs []seedDocument, brokers []string, topic string) error {
	producer := kafka.NewProducer(config.KafkaConfig{Brokers: brokers}, topic)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const batchSize = 500
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		events := make([]kafka.Event, 0, end-start)
		for _, doc := range docs[start:end] {
			events = append(events, kafka.Event{Key: strconv.Itoa(doc.ID), Value: doc})
		}
		_, err := resilience.Retry(ctx, "publish seed batch", resilience.RetryConfig{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond},
			func(ctx context.Context) (int, error) {
				return len(events), producer.PublishBatch(ctx, events)
			})
		if err != nil {
			return err
		}
	}
	return nil
}
