package tokenizer

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"only spaces", "   ", nil},
		{"single", "cat", []string{"cat"}},
		{"repeated spaces", "  white  cat ", []string{"white", "cat"}},
		{"tab stays inside word", "big\tcat dog", []string{"big\tcat", "dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Words(tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Words() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWordsIsRestartable(t *testing.T) {
	seq := Words("fluffy cat fluffy tail")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
}

func TestWordsStopsEarly(t *testing.T) {
	var seen []string
	for w := range Words("a b c d") {
		seen = append(seen, w)
		if len(seen) == 2 {
			break
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected early stop after 2 words, got %v", seen)
	}
}

func TestValidWord(t *testing.T) {
	if !ValidWord("кот") {
		t.Error("multi-byte word should be valid")
	}
	if ValidWord("sk\x12ip") {
		t.Error("word with control character should be invalid")
	}
}

func TestStopWords(t *testing.T) {
	sw, err := ParseStopWords("in  the and")
	if err != nil {
		t.Fatalf("ParseStopWords: %v", err)
	}
	for _, w := range []string{"in", "the", "and"} {
		if !sw.Contains(w) {
			t.Errorf("expected %q to be a stop word", w)
		}
	}
	if sw.Contains("") || sw.Contains("cat") {
		t.Error("unexpected stop word")
	}

	if _, err := NewStopWords([]string{"ok", "bad\x01"}); !apperrors.Is(err, apperrors.ErrInvalidWord) {
		t.Errorf("expected ErrInvalidWord, got %v", err)
	}

	var none StopWords
	if none.Contains("in") {
		t.Error("nil set should contain nothing")
	}
}
