package executor

import (
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// relevanceParallel splits the plus words into chunks that accumulate into
// a shared accumulator, joins them, then does the same with the minus words.
// Joining between the two phases means no erase can run before an insert it
// must remove.
func (e *Executor) relevanceParallel(q *parser.Query, pred Predicate) (map[int]float64, error) {
	total := e.corpus.DocumentCount()
	acc := accumulator.New[int, float64](e.bucketCount)

	err := fanout.Each(fanout.Parallel, q.Plus, e.parts, func(word string) error {
		postings := e.corpus.Postings(word)
		if len(postings) == 0 {
			return nil
		}
		idf := ranker.IDF(total, len(postings))
		for id, tf := range postings {
			doc, ok := e.corpus.Document(id)
			if !ok || !pred(id, doc.Status, doc.Rating) {
				continue
			}
			contribution := tf * idf
			acc.Update(id, func(score *float64) { *score += contribution })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = fanout.Each(fanout.Parallel, q.Minus, e.parts, func(word string) error {
		for id := range e.corpus.Postings(word) {
			acc.Erase(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("parallel accumulation done",
		"parts", e.parts,
		"buckets", e.bucketCount,
		"plus_words", len(q.Plus),
		"minus_words", len(q.Minus),
	)
	return acc.Drain(), nil
}
