package ranker

import (
	"math"
	"slices"
)

const (
	// MaxResultDocumentCount caps the number of documents a search returns.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the tolerance below which two relevances are
	// considered equal and rating decides the order.
	RelevanceEpsilon = 1e-6
)

type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// IDF is ln(totalDocs / docFreq). It is zero when either count is zero.
func IDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 || docFreq <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}

// Compare orders by relevance descending, then rating descending, then id
// ascending.
func Compare(a, b ScoredDoc) int {
	if math.Abs(a.Relevance-b.Relevance) >= RelevanceEpsilon {
		if a.Relevance > b.Relevance {
			return -1
		}
		return 1
	}
	if a.Rating != b.Rating {
		if a.Rating > b.Rating {
			return -1
		}
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Rank joins each score with its rating, sorts and truncates to limit.
// A non-positive limit means MaxResultDocumentCount.
func Rank(scores map[int]float64, rating func(id int) int, limit int) []ScoredDoc {
	if limit <= 0 {
		limit = MaxResultDocumentCount
	}
	result := make([]ScoredDoc, 0, len(scores))
	for id, relevance := range scores {
		result = append(result, ScoredDoc{
			ID:        id,
			Relevance: relevance,
			Rating:    rating(id),
		})
	}
	slices.SortFunc(result, Compare)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
