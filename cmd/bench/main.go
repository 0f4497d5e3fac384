package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"ringkv/pkg/cluster"
)

type BenchmarkResult struct {
	TotalOps      int
	SuccessfulOps int
	FailedOps     int
	Duration      time.Duration
	OpsPerSec     float64
	AvgLatency    time.Duration
	P99Latency    time.Duration
	MaxLatency    time.Duration
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "coordinator base URL")
	ops := flag.Int("ops", 1000, "operations per test")
	concurrency := flag.Int("c", 10, "goroutines for concurrent tests")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	fmt.Println("=== ringkv benchmark ===")
	fmt.Printf("Target: %s\n\n", *baseURL)

	// Проверка доступности
	client := &http.Client{Timeout: *timeout}
	if !checkHealth(client, *baseURL) {
		fmt.Printf("ERROR: coordinator %s is not available\n", *baseURL)
		return
	}

	// API координатора совпадает с API ноды, поэтому клиент общий
	remote := cluster.NewHTTPClient(*baseURL, client)

	printResult("Sequential writes", run(*ops, 1, func(ctx context.Context, g, i int) error {
		return remote.Put(ctx, benchKey(g, i), fmt.Sprintf("value_%d_%d", g, i))
	}))
	printResult("Sequential reads", run(*ops, 1, func(ctx context.Context, g, i int) error {
		return read(ctx, remote, benchKey(g, i))
	}))
	printResult("Concurrent writes", run(*ops, *concurrency, func(ctx context.Context, g, i int) error {
		return remote.Put(ctx, benchKey(g, i), fmt.Sprintf("value_%d_%d", g, i))
	}))
	printResult("Concurrent reads", run(*ops, *concurrency, func(ctx context.Context, g, i int) error {
		return read(ctx, remote, benchKey(g, i))
	}))

	fmt.Println("\n=== Benchmark Complete ===")
}

func benchKey(g, i int) string {
	return fmt.Sprintf("bench_key_%d_%d", g, i)
}

func read(ctx context.Context, remote *cluster.HTTPClient, key string) error {
	_, found, err := remote.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return cluster.ErrNotFound
	}
	return nil
}

func checkHealth(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func run(totalOps, concurrency int, op func(ctx context.Context, g, i int) error) BenchmarkResult {
	if concurrency < 1 {
		concurrency = 1
	}
	start := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	latencies := make([]time.Duration, 0, totalOps)

	perGoroutine := totalOps / concurrency
	remainder := totalOps % concurrency

	for g := 0; g < concurrency; g++ {
		n := perGoroutine
		if g < remainder {
			n++
		}
		wg.Add(1)
		go func(g, n int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				opStart := time.Now()
				err := op(context.Background(), g, i)
				latency := time.Since(opStart)

				mu.Lock()
				if err != nil {
					failed++
				}
				latencies = append(latencies, latency)
				mu.Unlock()
			}
		}(g, n)
	}
	wg.Wait()

	return summarize(latencies, failed, time.Since(start))
}

func summarize(latencies []time.Duration, failed int, elapsed time.Duration) BenchmarkResult {
	res := BenchmarkResult{
		TotalOps:      len(latencies),
		SuccessfulOps: len(latencies) - failed,
		FailedOps:     failed,
		Duration:      elapsed,
	}
	if len(latencies) == 0 {
		return res
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	res.AvgLatency = sum / time.Duration(len(latencies))
	res.P99Latency = latencies[(len(latencies)*99)/100]
	res.MaxLatency = latencies[len(latencies)-1]
	if elapsed > 0 {
		res.OpsPerSec = float64(len(latencies)) / elapsed.Seconds()
	}
	return res
}

func printResult(name string, r BenchmarkResult) {
	fmt.Printf("%s:\n", name)
	fmt.Printf("  ops: %d ok / %d failed (%.0f ops/sec, %v total)\n", r.SuccessfulOps, r.FailedOps, r.OpsPerSec, r.Duration)
	fmt.Printf("  latency: avg=%v p99=%v max=%v\n", r.AvgLatency, r.P99Latency, r.MaxLatency)
}
