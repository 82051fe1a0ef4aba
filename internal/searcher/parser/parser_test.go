package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func stopWords(t *testing.T, text string) tokenizer.StopWords {
	t.Helper()
	sw, err := tokenizer.ParseStopWords(text)
	if err != nil {
		t.Fatalf("stop words: %v", err)
	}
	return sw
}

func TestParse(t *testing.T) {
	sw := stopWords(t, "and in the")
	tests := []struct {
		name  string
		query string
		plus  []string
		minus []string
	}{
		{"empty", "", []string{}, []string{}},
		{"plus words sorted and deduplicated", "fluffy groomed cat fluffy", []string{"cat", "fluffy", "groomed"}, []string{}},
		{"minus words", "cat -collar -tail", []string{"cat"}, []string{"collar", "tail"}},
		{"stop words dropped", "cat and the dog", []string{"cat", "dog"}, []string{}},
		{"stop word with minus dropped", "cat -in", []string{"cat"}, []string{}},
		{"minus wins over plus", "cat dog -cat", []string{"dog"}, []string{"cat"}},
		{"extra spaces", "  cat   dog ", []string{"cat", "dog"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.query, sw)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.query, err)
			}
			if diff := cmp.Diff(tt.plus, q.Plus); diff != "" {
				t.Errorf("plus (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.minus, q.Minus); diff != "" {
				t.Errorf("minus (-want +got):\n%s", diff)
			}
			if q.RawQuery != tt.query {
				t.Errorf("RawQuery = %q", q.RawQuery)
			}
		})
	}
}

func TestParseOrderedKeepsEncounterOrder(t *testing.T) {
	q, err := ParseOrdered("tail -zebra fluffy cat -apple tail -zebra", nil)
	if err != nil {
		t.Fatalf("ParseOrdered: %v", err)
	}
	if diff := cmp.Diff([]string{"tail", "fluffy", "cat"}, q.Plus); diff != "" {
		t.Errorf("plus (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"zebra", "apple"}, q.Minus); diff != "" {
		t.Errorf("minus (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []error
	}{
		{"bare minus", "cat -", []error{apperrors.ErrInvalidQuery}},
		{"double minus", "cat --dog", []error{apperrors.ErrInvalidQuery}},
		{"control character", "ca\x01t", []error{apperrors.ErrInvalidQuery, apperrors.ErrInvalidWord}},
		{"control character in minus word", "-d\x1fog", []error{apperrors.ErrInvalidQuery, apperrors.ErrInvalidWord}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, parse := range []func(string, StopWordSet) (*Query, error){Parse, ParseOrdered} {
				_, err := parse(tt.query, nil)
				for _, want := range tt.want {
					if !apperrors.Is(err, want) {
						t.Errorf("error = %v, want it to match %v", err, want)
					}
				}
				if got := apperrors.HTTPStatusCode(err); got != 400 {
					t.Errorf("status code = %d, want 400", got)
				}
			}
		})
	}
}

func TestStopWordCheckedAfterStrippingMinus(t *testing.T) {
	q, err := Parse("-the cat", stopWords(t, "the"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Minus) != 0 {
		t.Errorf("stop word kept as minus word: %v", q.Minus)
	}
	if q.Empty() {
		t.Error("query with a plus word reported empty")
	}
}
