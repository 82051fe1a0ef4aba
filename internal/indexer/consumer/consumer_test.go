package consumer

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/server"
)

func TestHandleMessage(t *testing.T) {
	sw, err := tokenizer.ParseStopWords("and")
	if err != nil {
		t.Fatalf("stop words: %v", err)
	}
	srv := server.New(server.Options{StopWords: sw})
	handle := HandleMessage(srv)

	messages := []string{
		`{"id": 4, "text": "nasty rat and curly hair", "status": "BANNED", "ratings": [1, 2]}`,
		`{"id": 2, "text": "funny pet"}`,
		`{"id": 2, "text": "duplicate id"}`,
		`{"id": 5, "text": "bad\u0001word"}`,
		`{"text": "missing id"}`,
		`not json`,
	}
	for _, m := range messages {
		if err := handle(context.Background(), []byte("k"), []byte(m)); err != nil {
			t.Errorf("handler returned %v for %s", err, m)
		}
	}

	if diff := cmp.Diff([]int{2, 4}, srv.DocumentIDs()); diff != "" {
		t.Errorf("indexed ids (-want +got):\n%s", diff)
	}
	docs, err := srv.FindTopDocuments(context.Background(), fanout.Sequential, "curly", func(_ int, s index.Status, _ int) bool {
		return s == index.StatusBanned
	})
	if err != nil {
		t.Fatalf("FindTopDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != 4 || docs[0].Rating != 1 {
		t.Errorf("banned search = %+v", docs)
	}
}
