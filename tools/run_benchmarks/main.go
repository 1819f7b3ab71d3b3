// Package main runs the planner over generated levels and collects metrics.
//
// Every level is measured twice: one planning cycle on its first snapshot,
// and a full simulated episode.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elektrokombinacija/zoneplan/internal/config"
	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/scene"
	"github.com/elektrokombinacija/zoneplan/internal/sim"
)

// BenchmarkResult stores the results for one level.
type BenchmarkResult struct {
	Timestamp  string `json:"timestamp"`
	CommitHash string `json:"commit_hash"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Level      string `json:"level"`
	FieldSize  string `json:"field_size"`
	NumLocks   int    `json:"num_locks"`
	Budget     int    `json:"budget"`

	// First cycle
	FirstBranch  string  `json:"first_branch"`
	FirstMoves   int     `json:"first_moves"`
	PlanMs       float64 `json:"plan_ms"`
	FirstStalled bool    `json:"first_stalled"`

	// Episode
	Outcome      string  `json:"outcome"`
	Cycles       int     `json:"cycles"`
	MovesSent    int     `json:"moves_sent"`
	LocksOpened  int     `json:"locks_opened"`
	Recoveries   int     `json:"recoveries"`
	BudgetGuards int     `json:"budget_guards"`
	EpisodeMs    float64 `json:"episode_ms"`
	Error        string  `json:"error,omitempty"`
}

// OutcomeMetrics aggregates results per episode outcome.
type OutcomeMetrics struct {
	Name        string
	Runs        int
	TotalCycles int
	TotalMoves  int
	TotalPlanMs float64
}

func getGitCommit() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

// firstCycle plans on the level's stored snapshot, or renders one when the
// snapshot file is missing.
func firstCycle(levelPath string, level *sim.Level, cfg *config.Config) (*planner.Plan, time.Duration, error) {
	snapPath := strings.TrimSuffix(levelPath, ".level.json") + ".json"
	snap, err := scene.LoadSnapshot(snapPath)
	if errors.Is(err, os.ErrNotExist) {
		world, werr := sim.NewWorld(level, nil)
		if werr != nil {
			return nil, 0, werr
		}
		snap, err = world.Snapshot(), nil
	}
	if err != nil {
		return nil, 0, err
	}

	builder, err := scene.NewBuilder(cfg)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	state, err := builder.Build(snap)
	if err != nil {
		return nil, 0, err
	}
	plan, err := planner.NewEngine(planner.OptionsFromConfig(cfg), nil).Plan(state)
	return plan, time.Since(start), err
}

func runLevel(ctx context.Context, path string, cfg *config.Config, maxCycles int, commit string) *BenchmarkResult {
	name := strings.TrimSuffix(filepath.Base(path), ".level.json")
	result := &BenchmarkResult{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CommitHash: commit,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Level:      name,
	}

	level, err := sim.LoadLevel(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.FieldSize = fmt.Sprintf("%dx%d", level.Rows, level.Cols)
	result.NumLocks = len(level.Locks)
	result.Budget = level.Budget

	plan, elapsed, err := firstCycle(path, level, cfg)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.FirstBranch = plan.Branch.String()
	result.FirstMoves = len(plan.Moves)
	result.FirstStalled = plan.Stalled
	result.PlanMs = float64(elapsed.Microseconds()) / 1000.0

	simCfg := sim.DefaultConfig(level)
	simCfg.Planner = cfg
	simCfg.MaxCycles = maxCycles
	start := time.Now()
	res, err := sim.RunSimulation(ctx, simCfg)
	result.EpisodeMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		result.Error = err.Error()
		return result
	}
	m := res.Metrics
	result.Outcome = string(m.Outcome)
	result.Cycles = m.Cycles
	result.MovesSent = m.MovesSent
	result.LocksOpened = m.LocksOpened
	result.Recoveries = m.Recoveries
	result.BudgetGuards = m.BudgetGuards
	return result
}

func writeCSV(results []*BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"timestamp", "commit_hash", "go_version", "os", "arch",
		"level", "field_size", "num_locks", "budget",
		"first_branch", "first_moves", "plan_ms", "first_stalled",
		"outcome", "cycles", "moves_sent", "locks_opened",
		"recoveries", "budget_guards", "episode_ms", "error",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Level, r.FieldSize, strconv.Itoa(r.NumLocks), strconv.Itoa(r.Budget),
			r.FirstBranch, strconv.Itoa(r.FirstMoves),
			fmt.Sprintf("%.3f", r.PlanMs), strconv.FormatBool(r.FirstStalled),
			r.Outcome, strconv.Itoa(r.Cycles), strconv.Itoa(r.MovesSent), strconv.Itoa(r.LocksOpened),
			strconv.Itoa(r.Recoveries), strconv.Itoa(r.BudgetGuards),
			fmt.Sprintf("%.3f", r.EpisodeMs), r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(results []*BenchmarkResult, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printSummary(results []*BenchmarkResult) {
	metrics := make(map[string]*OutcomeMetrics)
	for _, r := range results {
		key := r.Outcome
		if r.Error != "" {
			key = "error"
		}
		m, ok := metrics[key]
		if !ok {
			m = &OutcomeMetrics{Name: key}
			metrics[key] = m
		}
		m.Runs++
		m.TotalCycles += r.Cycles
		m.TotalMoves += r.MovesSent
		m.TotalPlanMs += r.PlanMs
	}

	fmt.Println("\n=== BENCHMARK SUMMARY ===")
	fmt.Printf("%-12s %8s %10s %10s %12s\n", "Outcome", "Runs", "AvgCycles", "AvgMoves", "AvgPlan(ms)")
	fmt.Println(strings.Repeat("-", 56))

	var names []string
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := metrics[name]
		n := float64(m.Runs)
		fmt.Printf("%-12s %8d %10.2f %10.2f %12.3f\n",
			m.Name, m.Runs, float64(m.TotalCycles)/n, float64(m.TotalMoves)/n, m.TotalPlanMs/n)
	}
}

func main() {
	inputDir := flag.String("input", "testdata", "Directory containing *.level.json files")
	outputFile := flag.String("output", "evidence/benchmark_results.csv", "Output CSV file")
	jsonFile := flag.String("json", "", "Also write results as JSON to this file")
	configPath := flag.String("config", "", "Planner config JSON file (defaults when empty)")
	maxCycles := flag.Int("max-cycles", 64, "Cycle limit per episode")
	timeout := flag.Duration("timeout", 5*time.Minute, "Timeout for the whole run")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*inputDir, "*.level.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No level files found in %s\n", *inputDir)
		fmt.Fprintf(os.Stderr, "Run gen_snapshots first: go run ./tools/gen_snapshots -scaling -output testdata\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	commit := getGitCommit()
	fmt.Printf("Running benchmarks: %d levels\n\n", len(files))

	var results []*BenchmarkResult
	for i, file := range files {
		if *verbose {
			fmt.Printf("[%d/%d] %s ... ", i+1, len(files), filepath.Base(file))
		} else {
			fmt.Printf("\r[%d/%d] Running...", i+1, len(files))
		}

		result := runLevel(ctx, file, cfg, *maxCycles, commit)
		results = append(results, result)

		if *verbose {
			if result.Error != "" {
				fmt.Printf("ERROR %s\n", result.Error)
			} else {
				fmt.Printf("%s (%d cycles, %d moves, %.2fms first plan)\n",
					result.Outcome, result.Cycles, result.MovesSent, result.PlanMs)
			}
		}
	}
	fmt.Println()

	if err := writeCSV(results, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Results written to: %s\n", *outputFile)

	if *jsonFile != "" {
		if err := writeJSON(results, *jsonFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON results: %v\n", err)
			os.Exit(1)
		}
	}

	printSummary(results)
}
