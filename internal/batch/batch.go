// Package batch ranks many queries at once against a stable index.
package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

// DefaultConcurrency bounds the queries ranked at the same time when the
// caller passes a non-positive limit.
const DefaultConcurrency = 8

type Searcher interface {
	FindTopDocuments(ctx context.Context, policy fanout.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error)
}

// ProcessQueries ranks every query independently with the default status
// filter. Results keep the order of queries. The first failing query
// cancels the rest and its error is returned.
func ProcessQueries(ctx context.Context, s Searcher, queries []string, concurrency int) ([][]ranker.ScoredDoc, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	defer logger.Duration(slog.Default().With("component", "batch"), "process queries")()

	results := make([][]ranker.ScoredDoc, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range queries {
		g.Go(func() error {
			docs, err := s.FindTopDocuments(ctx, fanout.Sequential, q, nil)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessQueriesJoined is ProcessQueries flattened into one list, query by
// query.
func ProcessQueriesJoined(ctx context.Context, s Searcher, queries []string, concurrency int) ([]ranker.ScoredDoc, error) {
	perQuery, err := ProcessQueries(ctx, s, queries, concurrency)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, docs := range perQuery {
		n += len(docs)
	}
	joined := make([]ranker.ScoredDoc, 0, n)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}
