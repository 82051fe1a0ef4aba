package ranker

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIDF(t *testing.T) {
	if got, want := IDF(3, 2), math.Log(1.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("IDF(3, 2) = %v, want %v", got, want)
	}
	if got := IDF(4, 4); got != 0 {
		t.Errorf("IDF(4, 4) = %v, want 0", got)
	}
	if got := IDF(0, 0); got != 0 {
		t.Errorf("IDF(0, 0) = %v, want 0", got)
	}
}

func TestRankOrdering(t *testing.T) {
	ratings := map[int]int{1: 5, 2: 9, 3: 1, 4: 9, 5: 0, 6: 0, 7: 3}
	scores := map[int]float64{
		1: 0.8,
		2: 0.5,
		3: 0.5 + 5e-7,
		4: 0.5,
		5: 0.1,
		6: 0.05,
		7: 0.9,
	}
	got := Rank(scores, func(id int) int { return ratings[id] }, 0)

	var ids []int
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	// 2, 3 and 4 tie on relevance: rating breaks it, then id.
	if diff := cmp.Diff([]int{7, 1, 2, 4, 3}, ids); diff != "" {
		t.Errorf("ranked ids (-want +got):\n%s", diff)
	}
	if got[0].Rating != 3 || got[0].Relevance != 0.9 {
		t.Errorf("first result = %+v", got[0])
	}
}

func TestRankLimit(t *testing.T) {
	scores := map[int]float64{1: 1, 2: 2, 3: 3}
	got := Rank(scores, func(int) int { return 0 }, 2)
	want := []ScoredDoc{{ID: 3, Relevance: 3}, {ID: 2, Relevance: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank (-want +got):\n%s", diff)
	}
	if got := Rank(nil, func(int) int { return 0 }, 0); len(got) != 0 {
		t.Errorf("empty scores ranked %v", got)
	}
}

func TestCompareHigherRelevanceFirst(t *testing.T) {
	a := ScoredDoc{ID: 9, Relevance: 0.3, Rating: -10}
	b := ScoredDoc{ID: 1, Relevance: 0.2, Rating: 100}
	if Compare(a, b) >= 0 || Compare(b, a) <= 0 {
		t.Error("higher relevance must rank first regardless of rating")
	}
	if Compare(a, a) != 0 {
		t.Error("Compare(a, a) != 0")
	}
}
