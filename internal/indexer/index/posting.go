package index

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/vocab"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Status is an opaque classification tag attached to a document when it is
// added. It is not a lifecycle state.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(name)
	for i, n := range statusNames {
		if n == upper {
			return Status(i), nil
		}
	}
	return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown document status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("marshaling status: %d out of range", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Postings maps document id to the term frequency of one word in that
// document. Maps handed out by MemoryIndex are read-only views.
type Postings map[int]float64

// DocumentData is the document store entry. Words maps every distinct word
// of the document to its term frequency.
type DocumentData struct {
	Rating int
	Status Status
	Words  map[vocab.WordRef]float64
}

// AverageRating is the integer mean of ratings truncated toward zero, or 0
// for no ratings.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
