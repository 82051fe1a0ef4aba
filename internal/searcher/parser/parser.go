package parser

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// StopWordSet is the only thing the parser needs from the stop-word list.
type StopWordSet interface {
	Contains(word string) bool
}

// Query holds the plus and minus words of a parsed query. The two lists are
// disjoint and free of duplicates.
type Query struct {
	Plus     []string
	Minus    []string
	RawQuery string
}

// Empty reports whether the query has no plus words, in which case nothing
// can match.
func (q *Query) Empty() bool {
	return len(q.Plus) == 0
}

// Parse returns the set form of raw: both lists sorted.
func Parse(raw string, stopWords StopWordSet) (*Query, error) {
	q, err := ParseOrdered(raw, stopWords)
	if err != nil {
		return nil, err
	}
	slices.Sort(q.Plus)
	slices.Sort(q.Minus)
	return q, nil
}

// ParseOrdered returns the list form of raw: each list keeps the order in
// which its words first appear.
func ParseOrdered(raw string, stopWords StopWordSet) (*Query, error) {
	q := &Query{
		Plus:     make([]string, 0),
		Minus:    make([]string, 0),
		RawQuery: raw,
	}
	seenPlus := make(map[string]struct{})
	minus := make(map[string]struct{})
	for token := range tokenizer.Words(raw) {
		word, isMinus, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		if stopWords != nil && stopWords.Contains(word) {
			continue
		}
		if isMinus {
			if _, dup := minus[word]; !dup {
				minus[word] = struct{}{}
				q.Minus = append(q.Minus, word)
			}
			continue
		}
		if _, dup := seenPlus[word]; !dup {
			seenPlus[word] = struct{}{}
			q.Plus = append(q.Plus, word)
		}
	}
	if len(minus) > 0 {
		q.Plus = slices.DeleteFunc(q.Plus, func(w string) bool {
			_, excluded := minus[w]
			return excluded
		})
	}
	return q, nil
}

func parseToken(token string) (word string, isMinus bool, err error) {
	if !tokenizer.ValidWord(token) {
		return "", false, &apperrors.AppError{
			Err:        fmt.Errorf("%w: %w", apperrors.ErrInvalidQuery, apperrors.ErrInvalidWord),
			Message:    fmt.Sprintf("query word %q contains control characters", token),
			StatusCode: http.StatusBadRequest,
		}
	}
	word = token
	if strings.HasPrefix(word, "-") {
		isMinus = true
		word = word[1:]
	}
	if word == "" {
		return "", false, apperrors.New(apperrors.ErrInvalidQuery, http.StatusBadRequest,
			"minus sign without a word")
	}
	if strings.HasPrefix(word, "-") {
		return "", false, apperrors.Newf(apperrors.ErrInvalidQuery, http.StatusBadRequest,
			"query word %q has more than one minus sign", token)
	}
	return word, isMinus, nil
}
