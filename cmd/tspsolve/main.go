// Command tspsolve runs one solve described by a TOML file and prints the
// best tour as JSON on stdout. Logs go to stderr so the output stays pipeable.
//
// Example run file:
//
//	algorithm = "grasp"
//
//	[instance]
//	path = "testdata/berlin52.tsp"
//
//	[options]
//	iterations = 200
//	workers = 4
//	seed = 7
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/copyleftdev/TRVLR/internal/logging"
	"github.com/copyleftdev/TRVLR/internal/solve"
)

var configPath = flag.String("config", "solve.toml", "Path to the TOML run file")

var seedOverride = flag.Int64("seed", 0, "Override the seed from the run file (0 keeps it)")

var timeout = flag.Duration("timeout", 0, "Stop the solve after this duration and report the best tour found (0 runs to completion)")

var logLevel = flag.String("log-level", "info", "Minimum log level (debug, info, warn, error)")

// runConfig is the TOML document describing one solve run.
type runConfig struct {
	Algorithm string         `toml:"algorithm"`
	Instance  solve.Instance `toml:"instance"`
	Options   solve.Options  `toml:"options"`
}

// runOutput is the JSON document printed on success.
type runOutput struct {
	Algorithm   string                 `json:"algorithm"`
	Tour        []int                  `json:"tour"`
	Cost        float64                `json:"cost"`
	Iterations  int                    `json:"iterations"`
	Evaluations int                    `json:"evaluations"`
	DurationMS  float64                `json:"duration_ms"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

func main() {
	flag.Parse()

	logger, err := logging.NewLogger(&logging.Config{
		Level:  *logLevel,
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var run runConfig
	if _, err := toml.DecodeFile(*configPath, &run); err != nil {
		logger.Fatal("Failed to read run file", map[string]interface{}{
			"path":  *configPath,
			"error": err.Error(),
		})
	}

	if run.Algorithm == "" {
		run.Algorithm = solve.GRASP
	}
	if *seedOverride != 0 {
		run.Options.Seed = *seedOverride
	}

	model, err := run.Instance.Model()
	if err != nil {
		logger.Fatal("Failed to load instance", map[string]interface{}{
			"error": err.Error(),
		})
	}

	solver, err := solve.New(run.Algorithm, run.Options)
	if err != nil {
		logger.Fatal("Failed to configure solver", map[string]interface{}{
			"algorithm": run.Algorithm,
			"error":     err.Error(),
		})
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	logger.Info("Starting solve", map[string]interface{}{
		"algorithm": run.Algorithm,
		"cities":    model.Size(),
	})

	started := time.Now()
	result, err := solver.Solve(ctx, model)
	if err != nil {
		if result == nil {
			logger.Fatal("Solve failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		// A deadline still yields the best tour found so far
		logger.Warn("Solve stopped early", map[string]interface{}{
			"error":   err.Error(),
			"elapsed": time.Since(started).String(),
		})
	}

	logger.Info("Solve finished", map[string]interface{}{
		"cost":        result.Cost,
		"iterations":  result.Iterations,
		"evaluations": result.Evaluations,
		"duration":    result.Duration.String(),
	})

	out := runOutput{
		Algorithm:   run.Algorithm,
		Tour:        result.Tour,
		Cost:        result.Cost,
		Iterations:  result.Iterations,
		Evaluations: result.Evaluations,
		DurationMS:  float64(result.Duration.Microseconds()) / 1000.0,
		Meta:        result.Meta,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("Failed to write result", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
