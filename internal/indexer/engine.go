package indexer

import (
	"iter"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/vocab"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Engine owns the vocabulary, the inverted index and the stop words. It has
// no internal locking: queries may run concurrently with each other, but
// AddDocument and RemoveDocument must be serialised against everything else.
type Engine struct {
	vocab     *vocab.Vocabulary
	index     *index.MemoryIndex
	stopWords tokenizer.StopWords
	parts     int
	logger    *slog.Logger
}

// NewEngine creates an empty engine. parts is the chunk count used by
// parallel removal; non-positive means fanout.DefaultParts.
func NewEngine(stopWords tokenizer.StopWords, parts int) *Engine {
	if parts <= 0 {
		parts = fanout.DefaultParts
	}
	return &Engine{
		vocab:     vocab.New(),
		index:     index.NewMemoryIndex(),
		stopWords: stopWords,
		parts:     parts,
		logger:    slog.Default().With("component", "indexer"),
	}
}

func (e *Engine) AddDocument(id int, text string, status index.Status, ratings []int) error {
	if id < 0 {
		return apperrors.Newf(apperrors.ErrInvalidID, http.StatusBadRequest, "document id %d is negative", id)
	}
	if e.index.Has(id) {
		return apperrors.Newf(apperrors.ErrInvalidID, http.StatusConflict, "document id %d already exists", id)
	}

	var words []string
	for word := range tokenizer.Words(text) {
		if !tokenizer.ValidWord(word) {
			return apperrors.Newf(apperrors.ErrInvalidWord, http.StatusBadRequest,
				"document %d: word %q contains control characters", id, word)
		}
		if !e.stopWords.Contains(word) {
			words = append(words, word)
		}
	}

	refs := make([]vocab.WordRef, len(words))
	for i, word := range words {
		refs[i] = e.vocab.Intern(word)
	}
	e.index.AddDocument(id, refs, status, index.AverageRating(ratings))

	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status,
		"word_count", len(refs),
		"vocabulary", e.vocab.Len(),
		"terms", e.index.Terms(),
	)
	if len(refs) == 0 {
		e.logger.Warn("document has no indexable words", "doc_id", id)
	}
	return nil
}

// RemoveDocument deletes id and its postings. Unknown ids are ignored. Under
// fanout.Parallel the per-word posting removals are spread over chunks.
func (e *Engine) RemoveDocument(policy fanout.Policy, id int) bool {
	doc, ok := e.index.Document(id)
	if !ok {
		return false
	}
	if policy != fanout.Parallel {
		e.index.RemoveDocument(id)
	} else {
		refs := slices.Collect(maps.Keys(doc.Words))
		_ = fanout.Each(policy, refs, e.parts, func(ref vocab.WordRef) error {
			e.index.RemovePosting(ref, id)
			return nil
		})
		e.index.DropDocument(id)
	}
	e.logger.Debug("document removed", "doc_id", id, "policy", policy, "word_count", len(doc.Words))
	return true
}

// WordFrequencies returns the term frequency of every word of id, or an
// empty map for an unknown id.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	doc, ok := e.index.Document(id)
	if !ok {
		return map[string]float64{}
	}
	freqs := make(map[string]float64, len(doc.Words))
	for ref, tf := range doc.Words {
		freqs[e.vocab.Word(ref)] = tf
	}
	return freqs
}

func (e *Engine) DocumentCount() int {
	return e.index.DocCount()
}

// DocumentIDs yields live ids in ascending order. The index must not be
// mutated while the sequence is being consumed.
func (e *Engine) DocumentIDs() iter.Seq[int] {
	return e.index.IDs()
}

func (e *Engine) Document(id int) (index.DocumentData, bool) {
	return e.index.Document(id)
}

// Postings returns the documents containing word, or nil when the word is
// not indexed. The map is read-only.
func (e *Engine) Postings(word string) index.Postings {
	ref, ok := e.vocab.Lookup(word)
	if !ok {
		return nil
	}
	return e.index.Postings(ref)
}

// HasWord reports whether document id contains word.
func (e *Engine) HasWord(id int, word string) bool {
	ref, ok := e.vocab.Lookup(word)
	if !ok {
		return false
	}
	return e.index.Contains(ref, id)
}

func (e *Engine) IsStopWord(word string) bool {
	return e.stopWords.Contains(word)
}
