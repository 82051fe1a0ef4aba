package executor

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

type MatchResult struct {
	Words  []string     `json:"words"`
	Status index.Status `json:"status"`
}

var errMinusWordFound = errors.New("minus word present in document")

// MatchDocument returns the plus words of raw that document id contains,
// sorted, along with the document's status. A minus word present in the
// document empties the list.
//
// Under fanout.Sequential an unknown id yields an empty result and no error.
// Under fanout.Parallel it fails with ErrUnknownDocument.
func (e *Executor) MatchDocument(ctx context.Context, policy fanout.Policy, raw string, id int) (MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}
	if policy == fanout.Parallel {
		return e.matchParallel(raw, id)
	}

	q, err := parser.Parse(raw, e.stopWords)
	if err != nil {
		return MatchResult{}, err
	}
	doc, ok := e.corpus.Document(id)
	if !ok {
		return MatchResult{Words: []string{}}, nil
	}
	result := MatchResult{Words: []string{}, Status: doc.Status}
	for _, word := range q.Minus {
		if e.corpus.HasWord(id, word) {
			return result, nil
		}
	}
	for _, word := range q.Plus {
		if e.corpus.HasWord(id, word) {
			result.Words = append(result.Words, word)
		}
	}
	return result, nil
}

func (e *Executor) matchParallel(raw string, id int) (MatchResult, error) {
	q, err := parser.ParseOrdered(raw, e.stopWords)
	if err != nil {
		return MatchResult{}, err
	}
	doc, ok := e.corpus.Document(id)
	if !ok {
		return MatchResult{}, apperrors.Newf(apperrors.ErrUnknownDocument, http.StatusNotFound,
			"document %d not found", id)
	}
	result := MatchResult{Words: []string{}, Status: doc.Status}

	err = fanout.Each(fanout.Parallel, q.Minus, e.parts, func(word string) error {
		if e.corpus.HasWord(id, word) {
			return errMinusWordFound
		}
		return nil
	})
	if errors.Is(err, errMinusWordFound) {
		return result, nil
	}
	if err != nil {
		return MatchResult{}, err
	}

	var mu sync.Mutex
	err = fanout.Each(fanout.Parallel, q.Plus, e.parts, func(word string) error {
		if e.corpus.HasWord(id, word) {
			mu.Lock()
			result.Words = append(result.Words, word)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return MatchResult{}, err
	}
	slices.Sort(result.Words)
	result.Words = slices.Compact(result.Words)
	return result, nil
}
