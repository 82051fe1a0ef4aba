// Package tokenizer splits document and query text into words. Words are
// delimited by single spaces only, so any other control character stays
// inside a word where ValidWord can reject it.
package tokenizer

import (
	"iter"
	"net/http"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Words returns a lazy sequence of the non-empty, space-delimited words in
// text. The sequence can be ranged over any number of times.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for word := range strings.SplitSeq(text, " ") {
			if word == "" {
				continue
			}
			if !yield(word) {
				return
			}
		}
	}
}

// ValidWord reports whether word is free of control characters (< 0x20).
// Bytes below 0x20 never occur inside multi-byte UTF-8 sequences, so a
// byte scan is exact.
func ValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// StopWords is the set of words excluded from indexing and querying.
type StopWords map[string]struct{}

// NewStopWords builds a stop-word set, dropping empty entries. An entry with
// a control character fails with ErrInvalidWord.
func NewStopWords(words []string) (StopWords, error) {
	set := make(StopWords, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if !ValidWord(w) {
			return nil, apperrors.Newf(apperrors.ErrInvalidWord, http.StatusBadRequest,
				"stop word %q contains control characters", w)
		}
		set[w] = struct{}{}
	}
	return set, nil
}

// ParseStopWords builds a stop-word set from space-separated text.
func ParseStopWords(text string) (StopWords, error) {
	var words []string
	for w := range Words(text) {
		words = append(words, w)
	}
	return NewStopWords(words)
}

// Contains reports whether word is a stop word. A nil set contains nothing.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}
