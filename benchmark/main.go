// Package main provides a performance benchmarking tool for the catiq CLI.
// It measures execution times of the query commands against a snapshot source,
// running each scenario several times with the snapshot cache disabled and enabled,
// treating the first cached run as cold and averaging the rest as warm,
// and writes CSV output for performance analysis.
//
// Prerequisites:
// - catiq binary installed and available in PATH
// - A snapshot file or directory with at least one category
//
// Usage: go run benchmark/main.go <data-path> <category>
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// BenchmarkResult holds the result of one scenario (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Scenario    string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DataPath    string
	Category    string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
}

// scenario is one catiq invocation to time.
type scenario struct {
	name string
	args []string
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s <data-path> <category>\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DataPath:    os.Args[1],
		Category:    os.Args[2],
		Timeout:     time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   5,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("catiq", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config, scenarios())

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

func scenarios() []scenario {
	return []scenario{
		{name: "top-brands", args: []string{"ask", "--mode", "deterministic", "Who are the top brands?"}},
		{name: "growth", args: []string{"ask", "--mode", "deterministic", "Which brands are growing fastest?"}},
		{name: "trend", args: []string{"ask", "--mode", "deterministic", "How has category revenue trended?"}},
		{name: "sql", args: []string{"sql", "SELECT brand, revenue FROM brands_monthly ORDER BY revenue DESC LIMIT 10"}},
		{name: "signals", args: []string{"signals"}},
		{name: "tables", args: []string{"tables"}},
	}
}

// checkPrerequisites verifies that the catiq binary and the snapshot source exist.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("catiq"); err != nil {
		return errors.New("catiq binary not found in PATH")
	}
	if _, err := os.Stat(config.DataPath); err != nil {
		return fmt.Errorf("snapshot source not found at %s: %w", config.DataPath, err)
	}
	return nil
}

// runBenchmarks executes every scenario against the configured snapshot source.
func runBenchmarks(config BenchmarkConfig, list []scenario) []BenchmarkResult {
	fmt.Printf("Starting benchmark: %s/%s, %v timeout, no-cache: %d runs, cache: %d runs\n",
		config.DataPath, config.Category, config.Timeout, config.NoCacheRuns, config.CacheRuns)

	results := make([]BenchmarkResult, 0, len(list))
	for _, sc := range list {
		results = append(results, runBenchmarkSuite(config, sc))
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache phases for a scenario.
func runBenchmarkSuite(config BenchmarkConfig, sc scenario) BenchmarkResult {
	fmt.Printf("Running %s\n", sc.name)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, sc.args, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "FAILED"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "FAILED"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Scenario:    sc.name,
		Command:     sc.args[0],
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a catiq command multiple times with the given cache
// backend and returns the first successful time and the remaining ones.
func runBenchmark(config BenchmarkConfig, args []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	full := append([]string{}, args...)
	full = append(full, "--data", config.DataPath, "--category", config.Category, "--cache-backend", cacheBackend)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		err := exec.CommandContext(ctx, "catiq", full...).Run()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s/catiq_benchmark_%s.csv", os.TempDir(), timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"scenario", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Scenario, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-12s %-8s No-cache: %s, Cold: %s, Warm: %s\n",
			result.Scenario, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
