// Package integration contains tests that drive the search server through
// its full HTTP stack: middleware chain, handlers, and the optional Redis
// cache and Kafka ingest. Tests that need Redis or Kafka skip when the
// dependency is unreachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/fanout"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/server"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type stack struct {
	url     string
	server  *server.SearchServer
	metrics *metrics.Metrics
}

type stackOptions struct {
	redis     *pkgredis.Client
	perMinute int
	burst     int
}

// newStack wires the search server the same way cmd/searchserver does.
func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()
	sw, err := tokenizer.ParseStopWords("and in on with")
	if err != nil {
		t.Fatalf("stop words: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	srv := server.New(server.Options{StopWords: sw, Metrics: m})

	checker := health.NewChecker()
	var queryCache *cache.QueryCache
	if opts.redis != nil {
		queryCache = cache.New(opts.redis, time.Minute, m)
		srv.OnChange(queryCache.Bump)
		checker.Register("redis", health.PingCheck(opts.redis.Ping, health.StatusDegraded))
	}

	h := handler.New(srv, queryCache, handler.Options{DefaultPolicy: fanout.Sequential})
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(5 * time.Second)(chain)
	if opts.perMinute > 0 {
		chain = middleware.RateLimit(ratelimit.New(opts.perMinute, opts.burst), m)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	ts := httptest.NewServer(chain)
	t.Cleanup(ts.Close)
	return &stack{url: ts.URL, server: srv, metrics: m}
}

func (s *stack) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.url+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (s *stack) seed(t *testing.T) {
	t.Helper()
	docs := []map[string]any{
		{"id": 0, "text": "white cat and fashion collar", "ratings": []int{8, -3}},
		{"id": 1, "text": "fluffy cat fluffy tail", "ratings": []int{7, 2, 7}},
		{"id": 2, "text": "groomed dog expressive eyes", "ratings": []int{5, -12, 2, 1}},
		{"id": 3, "text": "groomed starling eugene", "status": "BANNED", "ratings": []int{9}},
	}
	for _, d := range docs {
		resp, body := s.do(t, http.MethodPost, "/api/v1/documents", d)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add %v: %d %v", d["id"], resp.StatusCode, body)
		}
	}
}

func ids(body map[string]any) []int {
	raw, _ := body["results"].([]any)
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		out = append(out, int(r.(map[string]any)["id"].(float64)))
	}
	return out
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	c, err := pkgredis.NewClient(context.Background(), config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 2,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func skipIfNoKafka(t *testing.T) []string {
	t.Helper()
	broker := envOrDefault("TEST_KAFKA_BROKER", "localhost:9092")
	conn, err := net.DialTimeout("tcp", broker, time.Second)
	if err != nil {
		t.Skipf("skipping integration test: kafka unavailable: %v", err)
	}
	conn.Close()
	return []string{broker}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSearchThroughMiddleware(t *testing.T) {
	s := newStack(t, stackOptions{})
	s.seed(t)

	for _, policy := range []string{"sequential", "parallel"} {
		resp, body := s.do(t, http.MethodGet, "/api/v1/search?q=fluffy+groomed+cat&policy="+policy, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", policy, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", policy)
		}
		if diff := cmp.Diff([]int{1, 0, 2}, ids(body)); diff != "" {
			t.Errorf("%s ids (-want +got):\n%s", policy, diff)
		}
	}

	_, body := s.do(t, http.MethodGet, "/api/v1/search?q=groomed&status=BANNED", nil)
	if diff := cmp.Diff([]int{3}, ids(body)); diff != "" {
		t.Errorf("banned ids (-want +got):\n%s", diff)
	}

	if got := testutil.ToFloat64(s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/search", "200")); got != 3 {
		t.Errorf("http_requests_total for search = %v, want 3", got)
	}
}

func TestRateLimiting(t *testing.T) {
	s := newStack(t, stackOptions{perMinute: 1, burst: 2})

	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodGet, "/api/v1/search?q=cat", nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	resp, body := s.do(t, http.MethodGet, "/api/v1/search?q=cat", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" || body["error"] == nil {
		t.Errorf("429 response missing Retry-After or error body: %v", body)
	}
	if got := testutil.ToFloat64(s.metrics.RateLimitedTotal); got != 1 {
		t.Errorf("rate_limited_total = %v, want 1", got)
	}
}

func TestRedisCache(t *testing.T) {
	rc := skipIfNoRedis(t)
	if _, err := rc.FlushByPattern(context.Background(), "search:*"); err != nil {
		t.Fatalf("flush: %v", err)
	}
	s := newStack(t, stackOptions{redis: rc})
	s.seed(t)

	_, first := s.do(t, http.MethodGet, "/api/v1/search?q=cat+fluffy", nil)
	_, second := s.do(t, http.MethodGet, "/api/v1/search?q=fluffy+cat+cat", nil)
	if first["cache_hit"] != false || second["cache_hit"] != true {
		t.Fatalf("cache_hit = %v then %v, want false then true", first["cache_hit"], second["cache_hit"])
	}
	if diff := cmp.Diff(ids(first), ids(second)); diff != "" {
		t.Errorf("cached ids differ (-first +second):\n%s", diff)
	}

	s.do(t, http.MethodDelete, "/api/v1/documents/1", nil)
	_, third := s.do(t, http.MethodGet, "/api/v1/search?q=cat+fluffy", nil)
	if third["cache_hit"] != false {
		t.Error("search after removal served from cache")
	}
	if diff := cmp.Diff([]int{0}, ids(third)); diff != "" {
		t.Errorf("ids after removal (-want +got):\n%s", diff)
	}

	resp, _ := s.do(t, http.MethodGet, "/health/ready", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}

func TestKafkaIngest(t *testing.T) {
	brokers := skipIfNoKafka(t)
	topic := "document-ingest-test-" + uuid.NewString()[:8]
	cfg := config.KafkaConfig{Brokers: brokers, ConsumerGroup: "search-server-test-" + uuid.NewString()[:8]}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer := kafka.NewProducer(cfg, topic)
	defer producer.Close()
	events := []kafka.Event{
		{Key: "0", Value: map[string]any{"id": 0, "text": "white cat", "ratings": []int{1}}},
		{Key: "1", Value: map[string]any{"id": 1, "text": "fluffy cat"}},
		{Key: "bad", Value: map[string]any{"text": "no id"}},
		{Key: "2", Value: map[string]any{"id": 2, "text": "groomed dog", "status": "BANNED"}},
	}
	if err := producer.PublishBatch(ctx, events); err != nil {
		t.Skipf("skipping: cannot publish to %s: %v", topic, err)
	}

	s := newStack(t, stackOptions{})
	kc := kafka.NewConsumer(cfg, topic, consumer.HandleMessage(s.server))
	defer kc.Close()
	done := make(chan error, 1)
	go func() { done <- consumer.New(kc).Start(ctx) }()

	for s.server.DocumentCount() < 3 {
		select {
		case <-ctx.Done():
			t.Fatalf("indexed %d documents before timeout", s.server.DocumentCount())
		case <-time.After(100 * time.Millisecond):
		}
	}
	cancel()
	<-done

	_, body := s.do(t, http.MethodGet, "/api/v1/documents", nil)
	if diff := cmp.Diff([]any{0.0, 1.0, 2.0}, body["ids"]); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=cat", nil)
	if got := ids(body); len(got) != 2 {
		t.Errorf("search results = %v", got)
	}
}

func TestBatchSearch(t *testing.T) {
	s := newStack(t, stackOptions{})
	s.seed(t)

	queries := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		queries = append(queries, fmt.Sprintf("cat %s", strings.Repeat("-collar ", i%2)))
	}
	resp, body := s.do(t, http.MethodPost, "/api/v1/search/batch", map[string]any{"queries": queries})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch status = %d (%v)", resp.StatusCode, body)
	}
	results := body["results"].([]any)
	if len(results) != 20 {
		t.Fatalf("got %d result lists", len(results))
	}
	if n := len(results[0].([]any)); n != 2 {
		t.Errorf("plain query returned %d docs, want 2", n)
	}
	if n := len(results[1].([]any)); n != 1 {
		t.Errorf("minus query returned %d docs, want 1", n)
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
