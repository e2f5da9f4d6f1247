// Package main benchmarks the deepdive CLI on synthetic backend responses.
// It generates segmented responses of increasing size, renders each one in
// several output formats, treats the first successful run as cold and averages
// the rest as warm, and writes the timings to a CSV file.
//
// Prerequisites:
// - deepdive binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated responses and rendered output
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/montanaflynn/stats"
)

// BenchmarkResult holds the timings of one response size and output format.
type BenchmarkResult struct {
	Size     string
	Output   string
	NoStore  string
	ColdTime string
	WarmTime string
	P90      string
}

// ResponseSize describes one synthetic response.
type ResponseSize struct {
	Name     string
	Segments int
	Metrics  int
	Arms     int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir    string
	Timeout    time.Duration
	NoStoreRun int
	StoreRuns  int
	Sizes      []ResponseSize
	Outputs    []string
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:    os.Args[1],
		Timeout:    2 * time.Minute,
		NoStoreRun: 3,
		StoreRuns:  4,
		Sizes: []ResponseSize{
			{Name: "small", Segments: 3, Metrics: 5, Arms: 2},
			{Name: "medium", Segments: 50, Metrics: 10, Arms: 3},
			{Name: "large", Segments: 500, Metrics: 25, Arms: 4},
		},
		Outputs: []string{"text", "json", "csv", "xlsx", "parquet"},
	}

	if _, err := exec.LookPath("deepdive"); err != nil {
		fmt.Printf("Prerequisites check failed: deepdive binary not found in PATH\n")
		os.Exit(1)
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// generateResponse writes a segmented response with the requested shape.
func generateResponse(dir string, size ResponseSize) (string, error) {
	type row map[string]any
	type segment struct {
		Segment string `json:"segment"`
		Metrics []row  `json:"metrics"`
	}

	segments := make([]segment, 0, size.Segments)
	for s := range size.Segments {
		seg := segment{Segment: fmt.Sprintf("Country Code: C%03d", s)}
		for m := range size.Metrics {
			for a := range size.Arms {
				bucket := fmt.Sprintf("variant_%d", a)
				if a == 0 {
					bucket = "control"
				}
				seg.Metrics = append(seg.Metrics, row{
					"name":     fmt.Sprintf("Metric %02d", m),
					"value":    100 + float64(a*m) + float64(s%7),
					"baseline": 100,
					"bucket":   bucket,
				})
			}
		}
		segments = append(segments, seg)
	}

	data, err := json.Marshal(map[string]any{"segments": segments})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("response_%s.json", size.Name))
	return path, os.WriteFile(path, data, 0o600)
}

// runBenchmarks executes all benchmark tests across configured sizes
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %d outputs, %v timeout, no-store: %d runs, store: %d runs\n",
		len(config.Sizes), len(config.Outputs), config.Timeout, config.NoStoreRun, config.StoreRuns)

	for _, size := range config.Sizes {
		path, err := generateResponse(config.WorkDir, size)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s response: %w", size.Name, err)
		}
		fmt.Printf("Benchmarking %s (%d segments x %d metrics x %d arms)\n", size.Name, size.Segments, size.Metrics, size.Arms)

		for _, output := range config.Outputs {
			results = append(results, runBenchmarkSuite(config, size.Name, path, output))
		}
	}
	return results, nil
}

// runBenchmarkSuite runs both no-store and store benchmarks for one output format
func runBenchmarkSuite(config BenchmarkConfig, sizeName, path, output string) BenchmarkResult {
	fmt.Printf("Rendering %s as %s\n", sizeName, output)
	outFile := filepath.Join(config.WorkDir, fmt.Sprintf("out_%s.%s", sizeName, output))

	// Phase 1: No-store runs
	_, noStore := runBenchmark(config, path, output, outFile, "none", config.NoStoreRun)

	// Phase 2: Store runs
	cold, warm := runBenchmark(config, path, output, outFile, "sqlite", config.StoreRuns)

	result := BenchmarkResult{
		Size:     sizeName,
		Output:   output,
		NoStore:  formatMean(noStore),
		ColdTime: "TIMEOUT",
		WarmTime: formatMean(warm),
		P90:      "n/a",
	}
	if cold > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", cold)
	}
	if p90, err := stats.Percentile(warm, 90); err == nil {
		result.P90 = fmt.Sprintf("%.3fs", p90)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", result.NoStore, result.ColdTime, result.WarmTime)
	return result
}

// runBenchmark renders the response numRuns times and returns the cold time and warm times
func runBenchmark(config BenchmarkConfig, path, output, outFile, storeBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{"render", path, "--output", output, "--store-backend", storeBackend}
	if output != "text" {
		args = append(args, "--output-file", outFile)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("deepdive", args...)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return coldTime, warmTimes
}

func formatMean(times []float64) string {
	mean, err := stats.Mean(times)
	if err != nil {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", mean)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("deepdive_benchmark_%s.csv", timestamp))

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

	// Write header
	if err := writer.Write([]string{"size", "output", "no_store_avg", "cold_time", "warm_avg", "warm_p90"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, r := range results {
		if err := writer.Write([]string{r.Size, r.Output, r.NoStore, r.ColdTime, r.WarmTime, r.P90}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")
	for _, size := range config.Sizes {
		fmt.Printf("%s:\n", size.Name)
		for _, r := range results {
			if r.Size == size.Name {
				fmt.Printf("  %-8s: No-store: %s, Cold: %s, Warm: %s, P90: %s\n", r.Output, r.NoStore, r.ColdTime, r.WarmTime, r.P90)
			}
		}
	}
}
