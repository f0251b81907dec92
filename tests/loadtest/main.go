package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18091"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numSeedCodes = 200
	numVerifiers = 100
)

var userAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8)",
	"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"VerifierKiosk/2.1",
}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
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

type seededCode struct {
	id    string
	image string
}

var (
	seedMu sync.Mutex
	seeds  []seededCode
)

func main() {
	fmt.Println("=== QRCodeDaemon Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Seed codes: %d | Verifiers: %d\n\n", numSeedCodes, numVerifiers)

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

	// Phase 1: Issue codes and remember the rendered images for scanning
	fmt.Println("\n--- Phase 1: Issuing codes (POST /generate) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doGenerate(rng)
	})
	if len(seeds) == 0 {
		fmt.Println("No codes issued, aborting")
		return
	}
	fmt.Printf("Issued %d codes\n", len(seeds))

	// Phase 2: Mixed scan/read load
	fmt.Println("\n--- Phase 2: Mixed load (60% scan, 40% read) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doScan(rng)
		case r < 0.80:
			return doGetCode(rng)
		default:
			return doGetAnalytics(rng)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% scan, 90% read) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doScan(rng)
		case r < 0.60:
			return doGetCode(rng)
		default:
			return doGetAnalytics(rng)
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

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

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

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doGenerate(rng *rand.Rand) result {
	n := rng.Intn(numSeedCodes)
	body := map[string]interface{}{
		"payload": map[string]interface{}{
			"assetId": fmt.Sprintf("ASSET-%04d", n),
			"serial":  fmt.Sprintf("SN-%06d", rng.Intn(1_000_000)),
			"batch":   rng.Intn(50),
		},
	}
	if rng.Float64() < 0.3 {
		body["size"] = 128 + rng.Intn(4)*64
	}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/generate", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /generate", 0, lat, true}
	}
	defer resp.Body.Close()
	if resp.StatusCode != 201 {
		io.Copy(io.Discard, resp.Body)
		return result{"POST /generate", resp.StatusCode, lat, true}
	}

	var generated struct {
		ID        string `json:"id"`
		ImageData string `json:"image_data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&generated); err == nil && generated.ID != "" {
		seedMu.Lock()
		if len(seeds) < numSeedCodes {
			seeds = append(seeds, seededCode{id: generated.ID, image: generated.ImageData})
		}
		seedMu.Unlock()
	}
	return result{"POST /generate", resp.StatusCode, lat, false}
}

func pickSeed(rng *rand.Rand) seededCode {
	seedMu.Lock()
	defer seedMu.Unlock()
	return seeds[rng.Intn(len(seeds))]
}

func doScan(rng *rand.Rand) result {
	code := pickSeed(rng)
	body := map[string]interface{}{
		"image_data":  code.image,
		"verifier_id": fmt.Sprintf("verifier_%d", rng.Intn(numVerifiers)),
	}
	if rng.Float64() < 0.5 {
		body["location"] = map[string]float64{
			"lat": 40.0 + rng.Float64()*10,
			"lon": -80.0 + rng.Float64()*10,
		}
	}

	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/scan", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgents[rng.Intn(len(userAgents))])

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{"POST /scan", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /scan", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetCode(rng *rand.Rand) result {
	code := pickSeed(rng)
	url := fmt.Sprintf("%s/code?id=%s&include_scans=true", baseURL, code.id)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /code", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /code", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetAnalytics(rng *rand.Rand) result {
	code := pickSeed(rng)
	url := fmt.Sprintf("%s/analytics?id=%s", baseURL, code.id)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /analytics", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /analytics", resp.StatusCode, lat, resp.StatusCode != 200}
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
