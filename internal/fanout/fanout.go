// Package fanout selects between sequential and parallel execution of the
// engine's per-word loops. Parallel work is split into a small fixed number
// of contiguous chunks, one goroutine each, and always joined before Each
// returns: no goroutine outlives the call that started it.
package fanout

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// DefaultParts is the number of chunks a parallel loop is split into.
const DefaultParts = 4

// Policy is the execution strategy of an engine operation.
type Policy int

const (
	Sequential Policy = iota
	Parallel
)

func (p Policy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "sequential"/"seq" and "parallel"/"par". The empty
// string selects Sequential.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "sequential", "seq":
		return Sequential, nil
	case "parallel", "par":
		return Parallel, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown execution policy %q", s)
	}
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Chunks splits items into at most parts contiguous chunks whose sizes
// differ by at most one. Empty chunks are omitted.
func Chunks[T any](items []T, parts int) [][]T {
	if parts <= 0 {
		parts = DefaultParts
	}
	if len(items) == 0 {
		return nil
	}
	if parts > len(items) {
		parts = len(items)
	}
	size, rem := len(items)/parts, len(items)%parts
	chunks := make([][]T, 0, parts)
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		chunks = append(chunks, items[start:end])
		start = end
	}
	return chunks
}

// Each calls fn for every item. Under Sequential the calls run in order on
// the calling goroutine and stop at the first error. Under Parallel each
// chunk runs on its own goroutine and stops at its own first error; Each
// waits for every chunk and returns the first error reported.
func Each[T any](policy Policy, items []T, parts int, fn func(T) error) error {
	if policy != Parallel {
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	for _, chunk := range Chunks(items, parts) {
		g.Go(func() error {
			for _, item := range chunk {
				if err := fn(item); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
