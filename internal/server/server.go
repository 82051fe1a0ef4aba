// Package server provides SearchServer, the thread-safe front of the search
// engine. Queries share a read lock; adds and removals take the write lock,
// so index mutation never overlaps a running search or match.
package server

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

type Options struct {
	StopWords     tokenizer.StopWords
	ParallelParts int
	BucketCount   int
	Metrics       *metrics.Metrics
}

type SearchServer struct {
	mu       sync.RWMutex
	engine   *indexer.Engine
	exec     *executor.Executor
	metrics  *metrics.Metrics
	logger   *slog.Logger
	onChange []func()
}

func New(opts Options) *SearchServer {
	engine := indexer.NewEngine(opts.StopWords, opts.ParallelParts)
	return &SearchServer{
		engine:  engine,
		exec:    executor.New(engine, opts.ParallelParts, opts.BucketCount),
		metrics: opts.Metrics,
		logger:  slog.Default().With("component", "search-server"),
	}
}

// OnChange registers fn to run after every successful mutation. Hooks must
// be registered before the server is shared between goroutines.
func (s *SearchServer) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *SearchServer) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *SearchServer) AddDocument(id int, text string, status index.Status, ratings []int) error {
	s.mu.Lock()
	err := s.engine.AddDocument(id, text, status, ratings)
	live := s.engine.DocumentCount()
	s.mu.Unlock()

	s.metrics.ObserveIndexed(err, live)
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *SearchServer) FindTopDocuments(ctx context.Context, policy fanout.Policy, raw string, pred executor.Predicate) ([]ranker.ScoredDoc, error) {
	start := time.Now()
	s.mu.RLock()
	docs, err := s.exec.FindTopDocuments(ctx, policy, raw, pred)
	s.mu.RUnlock()
	s.metrics.ObserveSearch(policy.String(), time.Since(start).Seconds(), len(docs), err)
	return docs, err
}

func (s *SearchServer) MatchDocument(ctx context.Context, policy fanout.Policy, raw string, id int) (executor.MatchResult, error) {
	s.mu.RLock()
	result, err := s.exec.MatchDocument(ctx, policy, raw, id)
	s.mu.RUnlock()
	s.metrics.ObserveMatch(policy.String(), err)
	return result, err
}

// RemoveDocument reports whether id was live.
func (s *SearchServer) RemoveDocument(policy fanout.Policy, id int) bool {
	s.mu.Lock()
	removed := s.engine.RemoveDocument(policy, id)
	live := s.engine.DocumentCount()
	s.mu.Unlock()

	if !removed {
		return false
	}
	s.metrics.ObserveRemoved(policy.String(), false, live)
	s.changed()
	return true
}

// RemoveDuplicates removes every document whose word set repeats a lower
// id's and returns the removed ids.
func (s *SearchServer) RemoveDuplicates(ctx context.Context) ([]int, error) {
	defer logger.Duration(s.logger, "remove duplicates")()

	s.mu.Lock()
	removed, err := dedup.RemoveDuplicates(ctx, s.engine)
	live := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for range removed {
		s.metrics.ObserveRemoved(fanout.Sequential.String(), true, live)
	}
	if len(removed) > 0 {
		s.changed()
	}
	return removed, nil
}

func (s *SearchServer) WordFrequencies(id int) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.WordFrequencies(id)
}

func (s *SearchServer) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentCount()
}

// DocumentIDs returns a snapshot of the live ids in ascending order.
func (s *SearchServer) DocumentIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(s.engine.DocumentIDs())
}
