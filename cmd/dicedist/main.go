// Package main provides the dicedist CLI, which prints the ordered or
// unordered distribution of one or more dice pools.
//
// Usage:
//
//	dicedist [flags] 2d6 3d4 ...
//	dicedist -presets content/presets -preset yahtzee
//	dicedist -script query.lua -fn main
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dicedist/internal/config"
	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/observability"
	"github.com/cory-johannsen/dicedist/internal/report"
	"github.com/cory-johannsen/dicedist/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and DICEDIST_* env")
	ordered := flag.Bool("ordered", false, "treat dice as distinguishable")
	format := flag.String("format", "table", "output format: table or yaml")
	presetsDir := flag.String("presets", "content/presets", "directory of preset YAML files")
	presetName := flag.String("preset", "", "name of a preset to print")
	scriptPath := flag.String("script", "", "Lua script to run instead of printing pools")
	scriptFn := flag.String("fn", "main", "global function the script must define")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	builder := dice.NewBuilder(dice.Limits{
		MaxDice:     cfg.Limits.MaxDice,
		MaxSides:    cfg.Limits.MaxSides,
		MaxOutcomes: cfg.Limits.MaxOutcomes,
	}, logger)

	if *scriptPath != "" {
		runner := scripting.NewRunner(builder, logger, cfg.Scripting.InstructionLimit)
		result, err := runner.RunFile(*scriptPath, *scriptFn)
		if err != nil {
			logger.Fatal("running script", zap.String("script", *scriptPath), zap.Error(err))
		}
		if err := yaml.NewEncoder(os.Stdout).Encode(result); err != nil {
			logger.Fatal("writing script result", zap.Error(err))
		}
		return
	}

	type job struct {
		pool    dice.Pool
		ordered bool
	}
	var jobs []job

	if *presetName != "" {
		catalog, err := dice.LoadPresetsFromDir(*presetsDir)
		if err != nil {
			logger.Fatal("loading presets", zap.String("dir", *presetsDir), zap.Error(err))
		}
		p, ok := catalog.Get(*presetName)
		if !ok {
			logger.Fatal("unknown preset",
				zap.String("preset", *presetName),
				zap.Strings("available", catalog.Names()),
			)
		}
		jobs = append(jobs, job{pool: p.Pool(), ordered: p.Ordered || *ordered})
	}

	for _, arg := range flag.Args() {
		pool, err := dice.Parse(arg)
		if err != nil {
			logger.Fatal("parsing pool", zap.String("arg", arg), zap.Error(err))
		}
		jobs = append(jobs, job{pool: pool, ordered: *ordered})
	}

	if len(jobs) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	for i, j := range jobs {
		if i > 0 && *format == "table" {
			fmt.Fprintln(os.Stdout)
		}
		if err := printPool(os.Stdout, builder, j.pool, j.ordered, *format); err != nil {
			logger.Fatal("building distribution", zap.Stringer("pool", j.pool), zap.Error(err))
		}
	}

	logger.Debug("done",
		zap.Int("pools", len(jobs)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func printPool(w io.Writer, builder *dice.Builder, pool dice.Pool, ordered bool, format string) error {
	d, err := builder.Build(pool, ordered)
	if err != nil {
		return err
	}
	return report.Write(w, format, report.FromDistribution(pool, ordered, d))
}
