package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// Corpus is the read side of the index that queries run against.
// *indexer.Engine implements it.
type Corpus interface {
	DocumentCount() int
	Postings(word string) index.Postings
	Document(id int) (index.DocumentData, bool)
	HasWord(id int, word string) bool
	IsStopWord(word string) bool
}

// Predicate decides whether a document may appear in search results.
type Predicate func(id int, status index.Status, rating int) bool

// ByStatus keeps only documents with the given status.
func ByStatus(status index.Status) Predicate {
	return func(_ int, s index.Status, _ int) bool {
		return s == status
	}
}

type stopWordFunc func(string) bool

func (f stopWordFunc) Contains(word string) bool { return f(word) }

// Executor runs searches and matches. It never mutates the corpus and is
// safe for concurrent use as long as the corpus is not mutated meanwhile.
type Executor struct {
	corpus      Corpus
	stopWords   parser.StopWordSet
	parts       int
	bucketCount int
	logger      *slog.Logger
}

// New creates an executor. parts is the chunk count of parallel searches and
// bucketCount the accumulator size; non-positive values select defaults.
func New(corpus Corpus, parts, bucketCount int) *Executor {
	if parts <= 0 {
		parts = fanout.DefaultParts
	}
	if bucketCount <= 0 {
		bucketCount = accumulator.DefaultBucketCount
	}
	return &Executor{
		corpus:      corpus,
		stopWords:   stopWordFunc(corpus.IsStopWord),
		parts:       parts,
		bucketCount: bucketCount,
		logger:      slog.Default().With("component", "query-executor"),
	}
}

// FindTopDocuments returns at most ranker.MaxResultDocumentCount documents
// for raw. A nil predicate keeps documents with status ACTUAL.
func (e *Executor) FindTopDocuments(ctx context.Context, policy fanout.Policy, raw string, pred Predicate) ([]ranker.ScoredDoc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pred == nil {
		pred = ByStatus(index.StatusActual)
	}
	q, err := parser.Parse(raw, e.stopWords)
	if err != nil {
		return nil, err
	}

	var scores map[int]float64
	if policy == fanout.Parallel {
		scores, err = e.relevanceParallel(q, pred)
		if err != nil {
			return nil, fmt.Errorf("parallel ranking: %w", err)
		}
	} else {
		scores = e.relevance(q, pred)
	}

	ranked := ranker.Rank(scores, e.rating, ranker.MaxResultDocumentCount)
	e.logger.Info("query executed",
		"query", raw,
		"policy", policy,
		"plus_words", len(q.Plus),
		"minus_words", len(q.Minus),
		"candidates", len(scores),
		"results", len(ranked),
	)
	return ranked, nil
}

func (e *Executor) rating(id int) int {
	doc, _ := e.corpus.Document(id)
	return doc.Rating
}

// relevance walks the plus words and then the minus words one at a time.
func (e *Executor) relevance(q *parser.Query, pred Predicate) map[int]float64 {
	total := e.corpus.DocumentCount()
	scores := make(map[int]float64)
	for _, word := range q.Plus {
		postings := e.corpus.Postings(word)
		if len(postings) == 0 {
			continue
		}
		idf := ranker.IDF(total, len(postings))
		for id, tf := range postings {
			doc, ok := e.corpus.Document(id)
			if ok && pred(id, doc.Status, doc.Rating) {
				scores[id] += tf * idf
			}
		}
	}
	for _, word := range q.Minus {
		for id := range e.corpus.Postings(word) {
			delete(scores, id)
		}
	}
	return scores
}
