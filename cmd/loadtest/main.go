package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Policy      string
	Queries     []string
}

// Stats aggregates the outcome of every search request.
type Stats struct {
	mu          sync.Mutex
	total       int64
	failed      int64
	zeroResults int64
	cacheHits   int64
	latencies   []time.Duration
	perQuery    map[string][]time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		perQuery:    make(map[string][]time.Duration),
		statusCodes: make(map[int]int64),
	}
}

// searchOutcome is the part of the search response the report uses.
type searchOutcome struct {
	Results  []json.RawMessage `json:"results"`
	CacheHit bool              `json:"cache_hit"`
}

// Record adds one request. statusCode is 0 when the request never got a
// response.
func (s *Stats) Record(query string, duration time.Duration, statusCode int, out searchOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.statusCodes[statusCode]++
	if statusCode < 200 || statusCode >= 300 {
		s.failed++
		return
	}
	s.latencies = append(s.latencies, duration)
	s.perQuery[query] = append(s.perQuery[query], duration)
	if len(out.Results) == 0 {
		s.zeroResults++
	}
	if out.CacheHit {
		s.cacheHits++
	}
}

var vocabulary = []string{
	"white", "cat", "fashion", "collar", "fluffy", "tail", "groomed", "dog",
	"expressive", "eyes", "funny", "pet", "nasty", "rat", "curly", "hair",
	"big", "small", "starling", "parrot", "hamster", "bowl", "leash", "brown",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	policy := flag.String("policy", "sequential", "execution policy sent with every search")
	seed := flag.Int("seed", 0, "number of generated documents to add before the run")
	seedVia := flag.String("seed-via", "http", "how to add seed documents: http or kafka")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers for -seed-via=kafka")
	topic := flag.String("topic", "document-ingest", "Kafka ingest topic for -seed-via=kafka")
	flag.Parse()

	queries := []string{
		"fluffy groomed cat",
		"white cat -collar",
		"funny pet",
		"nasty rat -curly",
		"curly hair",
		"big dog expressive eyes",
		"small starling",
		"parrot -cat -dog",
		"brown hamster bowl",
		"leash dog",
		"tail",
		"fashion collar -white",
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Policy:      *policy,
		Queries:     queries,
	}

	if *seed > 0 {
		docs := generateDocuments(*seed)
		var err error
		switch *seedVia {
		case "kafka":
			err = seedKafka(docs, strings.Split(*brokers, ","), *topic)
		default:
			err = seedHTTP(cfg.BaseURL, docs)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d documents via %s\n\n", len(docs), *seedVia)
	}

	fmt.Println("=== Search Server Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Policy:      %s\n", cfg.Policy)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	fmt.Print("Running")
	go progress(ctx, 5*time.Second)

	var wg sync.WaitGroup
	for w := range cfg.Concurrency {
		wg.Go(func() { worker(ctx, client, cfg, stats, w) })
	}
	wg.Wait()

	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func progress(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Print(".")
		}
	}
}

// worker cycles through the queries, starting at its own offset so that
// workers do not move in lockstep.
func worker(ctx context.Context, client *http.Client, cfg Config, stats *Stats, offset int) {
	for i := offset; ctx.Err() == nil; i++ {
		query := cfg.Queries[i%len(cfg.Queries)]
		searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&policy=%s",
			cfg.BaseURL, url.QueryEscape(query), url.QueryEscape(cfg.Policy))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "building request: %v\n", err)
			return
		}

		start := time.Now()
		resp, err := client.Do(req)
		duration := time.Since(start)
		if err != nil {
			if ctx.Err() == nil {
				stats.Record(query, duration, 0, searchOutcome{})
			}
			continue
		}
		var out searchOutcome
		json.NewDecoder(resp.Body).Decode(&out)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		stats.Record(query, duration, resp.StatusCode, out)
	}
}

func printReport(stats *Stats, duration time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", stats.total)
	fmt.Printf("Successful:      %d\n", stats.total-stats.failed)
	fmt.Printf("Errors:          %d\n", stats.failed)
	fmt.Printf("Zero Results:    %d\n", stats.zeroResults)
	fmt.Printf("Cache Hits:      %d\n", stats.cacheHits)
	if stats.total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(stats.failed)/float64(stats.total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(stats.total)/duration.Seconds())
	}

	if len(stats.latencies) > 0 {
		latencies := slices.Clone(stats.latencies)
		slices.Sort(latencies)
		avg, stddev := meanStdDev(latencies)

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Printf("P%-5.0f %s\n", p, percentile(latencies, p))
		}
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", stddev)

		fmt.Println()
		fmt.Println("=== Per Query (avg) ===")
		for _, q := range slices.Sorted(maps.Keys(stats.perQuery)) {
			qAvg, _ := meanStdDev(stats.perQuery[q])
			fmt.Printf("  %-28q %8d  %s\n", q, len(stats.perQuery[q]), qAvg)
		}
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	for _, code := range slices.Sorted(maps.Keys(stats.statusCodes)) {
		label := strconv.Itoa(code)
		if code == 0 {
			label = "transport error"
		}
		fmt.Printf("  %s: %d\n", label, stats.statusCodes[code])
	}

	if stats.total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func meanStdDev(latencies []time.Duration) (time.Duration, time.Duration) {
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := sum / time.Duration(len(latencies))
	var sumSquared float64
	for _, l := range latencies {
		diff := float64(l - avg)
		sumSquared += diff * diff
	}
	return avg, time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
