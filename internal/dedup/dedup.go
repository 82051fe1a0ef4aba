// Package dedup removes documents whose distinct word sets repeat an earlier
// document's.
package dedup

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
)

// Store is what duplicate detection needs from the index. The caller must
// hold off every other mutation while RemoveDuplicates runs.
type Store interface {
	DocumentIDs() iter.Seq[int]
	WordFrequencies(id int) map[string]float64
	RemoveDocument(policy fanout.Policy, id int) bool
}

// RemoveDuplicates walks ids in ascending order and keeps the first
// document of every distinct word set. Later documents with the same set
// are removed once the scan is complete. It returns the removed ids in
// ascending order.
func RemoveDuplicates(ctx context.Context, store Store) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "dedup")

	seen := make(map[string]struct{})
	var duplicates []int
	for id := range store.DocumentIDs() {
		key := wordSetKey(store.WordFrequencies(id))
		if _, dup := seen[key]; dup {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = struct{}{}
	}

	for _, id := range duplicates {
		logger.Info("found duplicate document", "doc_id", id)
		store.RemoveDocument(fanout.Sequential, id)
	}
	return duplicates, nil
}

// wordSetKey is the sorted word set joined by spaces. Words never contain a
// space, so distinct sets give distinct keys.
func wordSetKey(freqs map[string]float64) string {
	words := slices.Sorted(maps.Keys(freqs))
	return strings.Join(words, " ")
}
