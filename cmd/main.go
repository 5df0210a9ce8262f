package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stattip/stattip/internal/logger"
	"github.com/stattip/stattip/pkg/util/preds"
)

const usage = `Usage: stattip <command> [flags]

Commands:
  analyze   full prediction set for a date
  vip       reliability-ranked shortlist for a date
  results   stored predictions for a date, scored against final results

Flags:
  -date YYYY-MM-DD   target date, yesterday through after-tomorrow (default today)
  -config PATH       YAML configuration overlay
  -scores PATH       JSON map of match URL to final score, for results
  -log c|f|b         log to console, file or both (default c)
`

func main() {
	logger.SetShowDateTime(true)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	date := flags.String("date", time.Now().Format("2006-01-02"), "target date, YYYY-MM-DD")
	configPath := flags.String("config", "", "YAML configuration overlay")
	scoresPath := flags.String("scores", "", "JSON map of match URL to final score")
	logDest := flags.String("log", "c", "log destination: c, f or b")
	flags.Parse(os.Args[2:])

	if *logDest != "" {
		logger.SetLogOutput(rune((*logDest)[0]))
	}

	cfg, err := preds.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Invalid configuration:", err)
	}

	pipeline, store, err := buildPipeline(cfg)
	if err != nil {
		logger.Fatal("Failed to assemble pipeline:", err)
	}
	if store != nil {
		defer store.Close()
	}

	var result any
	switch command {
	case "analyze":
		result, err = pipeline.Analyze(*date)
	case "vip":
		result, err = pipeline.RankVIP(*date)
	case "results":
		result, err = runResults(store, *date, *scoresPath)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, preds.ErrUnsupportedDate) {
			logger.Error("The site only publishes yesterday through after-tomorrow:", *date)
			os.Exit(1)
		}
		logger.Error("Analysis failed:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("Failed to encode results:", err)
		os.Exit(1)
	}
}

// runResults loads the stored predictions for a date. With a scores
// file it evaluates them against the final results; without one it
// prints the stored records as-is.
func runResults(store *preds.Store, date, scoresPath string) (any, error) {
	if store == nil {
		return nil, fmt.Errorf("the results command needs dbPath configured")
	}
	if scoresPath == "" {
		return store.PredictionsForDate(date)
	}

	raw, err := os.ReadFile(scoresPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scores file %s: %w", scoresPath, err)
	}
	var scores map[string]string
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to parse scores file %s: %w", scoresPath, err)
	}
	return preds.EvaluateStored(store, date, scores)
}

// buildPipeline wires every component from the config. The store is
// returned separately so main can close it; a nil store means history
// persistence is disabled.
func buildPipeline(cfg *preds.Config) (*preds.Pipeline, *preds.Store, error) {
	scorer := preds.NewStaticScorer()
	if err := scorer.Warm(); err != nil {
		return nil, nil, fmt.Errorf("failed to warm the refinement scorer: %w", err)
	}

	cache, err := preds.NewSnapshotCache(cfg.CacheDir, cfg.CacheTTL.Std())
	if err != nil {
		return nil, nil, err
	}

	var store *preds.Store
	if cfg.DbPath != "" {
		store, err = preds.OpenStore(cfg.DbPath)
		if err != nil {
			// History is a convenience; predictions still work without it
			logger.Warn("Continuing without the prediction store:", err)
			store = nil
		}
	}

	pipeline := preds.NewPipeline(
		cfg,
		preds.NewHTTPFetcher(cfg),
		preds.NewMyBetsExtractor(cfg.Leagues),
		preds.NewGoalModel(cfg, scorer),
		preds.NewQualityGate(cfg),
		cache,
		store,
		preds.NewPipelineMetrics(),
	)
	return pipeline, store, nil
}
