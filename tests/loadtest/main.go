package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 25
	testDuration = 10 * time.Second
)

// A small fixed title set so the response cache absorbs most of the
// load instead of hammering the upstream wiki.
var titles = []string{
	"Go (programming language)",
	"Kotlin (programming language)",
	"Wikipedia",
	"HTTP",
	"Cache (computing)",
}

var intervals = []string{"daily", "weekly", "monthly", "yearly"}

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== WikiStats Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Titles: %d\n\n", numWorkers, testDuration, len(titles))

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: warm the caches, one fetch per title
	fmt.Println("\n--- Phase 1: Cache warmup (sequential) ---")
	for _, title := range titles {
		r := doGetRevisions(rand.New(rand.NewSource(1)), title)
		fmt.Printf("  %-40s %d in %s\n", title, r.status, r.latency.Round(time.Millisecond))
	}

	// Phase 2: read-heavy cached load
	fmt.Println("\n--- Phase 2: Read-heavy load (revisions/preview/stats) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		title := titles[rng.Intn(len(titles))]
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doGetRevisions(rng, title)
		case r < 0.75:
			return doGetStats(rng, title)
		default:
			return doGetPreview(title)
		}
	})

	// Phase 3: mixed load with windowed queries
	fmt.Println("\n--- Phase 3: Mixed load (with date windows) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		title := titles[rng.Intn(len(titles))]
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doGetRevisions(rng, title)
		case r < 0.70:
			return doGetRevisionsWindowed(rng, title)
		case r < 0.90:
			return doGetStats(rng, title)
		default:
			return doGetPreview(title)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-24s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 90))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-24s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 90))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doGet(endpoint, rawURL string, okStatus int) result {
	start := time.Now()
	resp, err := httpClient.Get(rawURL)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	// 503 means the rate-limit cooldown kicked in, which is expected
	// behavior under load, not a failure of the service.
	failed := resp.StatusCode != okStatus && resp.StatusCode != http.StatusServiceUnavailable
	return result{endpoint, resp.StatusCode, lat, failed}
}

func doGetRevisions(rng *rand.Rand, title string) result {
	limit := []int{50, 100, 300}[rng.Intn(3)]
	u := fmt.Sprintf("%s/api/revisions?title=%s&limit=%d", baseURL, url.QueryEscape(title), limit)
	return doGet("GET /api/revisions", u, http.StatusOK)
}

func doGetRevisionsWindowed(rng *rand.Rand, title string) result {
	year := 2020 + rng.Intn(4)
	u := fmt.Sprintf("%s/api/revisions?title=%s&limit=100&from=%d-01-01&to=%d-12-31",
		baseURL, url.QueryEscape(title), year, year)
	return doGet("GET /api/revisions?win", u, http.StatusOK)
}

func doGetStats(rng *rand.Rand, title string) result {
	interval := intervals[rng.Intn(len(intervals))]
	u := fmt.Sprintf("%s/api/stats?title=%s&interval=%s&limit=300", baseURL, url.QueryEscape(title), interval)
	return doGet("GET /api/stats", u, http.StatusOK)
}

func doGetPreview(title string) result {
	u := fmt.Sprintf("%s/api/preview?title=%s", baseURL, url.QueryEscape(title))
	return doGet("GET /api/preview", u, http.StatusOK)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
