// Copyright 2025 Rishta Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	rishta "github.com/rishtahq/rishta"
	"github.com/rishtahq/rishta/analyze"
	"github.com/rishtahq/rishta/config"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/ingest"
	"github.com/rishtahq/rishta/server"
	"github.com/rishtahq/rishta/storage"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "rishta",
		Usage: "Matrimonial profile matching service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "config.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP front door",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import profiles from a CSV file",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV file path",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "drop",
						Usage: "Delete all existing profiles first",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows inserted per batch",
						Value: 1000,
					},
				},
			},
			{
				Name:   "sync",
				Usage:  "Embed profiles and sync the vector index",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Re-embed every profile, ignoring fingerprints",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent embedding batches",
						Value: 0,
					},
				},
			},
			{
				Name:      "match",
				Usage:     "Run a one-shot hybrid match",
				ArgsUsage: "<query>",
				Action:    matchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "gender", Usage: "Your gender; candidates are the opposite unless --same-gender"},
					&cli.BoolFlag{Name: "same-gender", Usage: "Match the same gender instead of the opposite"},
					&cli.StringFlag{Name: "caste"},
					&cli.StringFlag{Name: "sect"},
					&cli.StringFlag{Name: "marital-status"},
					&cli.StringFlag{Name: "state"},
					&cli.IntFlag{Name: "min-age"},
					&cli.IntFlag{Name: "max-age"},
					&cli.IntFlag{Name: "top-k", Value: 10},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Print dataset statistics",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "fields",
						Usage: "Comma-separated canonical field names",
					},
					&cli.IntFlag{
						Name:  "top-n",
						Usage: "Top values reported per field",
						Value: 10,
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show store and index record counts",
				Action: inspectCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDatabase(c *cli.Context) (*rishta.Database, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	db, err := rishta.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg, nil
}

func serveCommand(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return err
	}
	syncer, err := db.NewSyncer()
	if err != nil {
		return err
	}
	defer syncer.Release()

	addr := cfg.Server.Addr
	if c.String("addr") != "" {
		addr = c.String("addr")
	}

	srv, err := server.New(server.Config{ListenAddr: addr}, server.Services{
		Profiles: db.ProfileRepository(),
		Index:    db.Index(),
		Matcher:  engine,
		Syncer:   syncer,
		Reporter: db.NewAnalyzer(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func importCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	importer, err := db.NewImporter(ingest.WithImportBatchSize(c.Int("batch-size")))
	if err != nil {
		return err
	}

	result, err := importer.ImportCSV(c.Context, file, c.Bool("drop"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Inserted %d profiles (%d skipped)\n", result.Inserted, result.Skipped)
	return nil
}

func syncCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []ingest.SyncerOption
	if c.Int("pool-size") > 0 {
		opts = append(opts, ingest.WithPoolSize(c.Int("pool-size")))
	}

	syncer, err := db.NewSyncer(opts...)
	if err != nil {
		return err
	}
	defer syncer.Release()

	stats, err := syncer.Sync(c.Context, c.Bool("full"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Synced %d profiles: %d embedded, %d skipped, %d failed\n",
		stats.Total, stats.Embedded, stats.Skipped, stats.Failed)
	return nil
}

func matchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return err
	}

	filter := storage.Filter{
		MaritalStatus: c.String("marital-status"),
		Caste:         c.String("caste"),
		Sect:          c.String("sect"),
		State:         c.String("state"),
	}
	if gender := c.String("gender"); gender != "" {
		if c.Bool("same-gender") {
			filter.Gender = gender
		} else {
			filter.Gender = core.OppositeGender(gender)
		}
	}
	if c.IsSet("min-age") {
		v := c.Int("min-age")
		filter.MinAge = &v
	}
	if c.IsSet("max-age") {
		v := c.Int("max-age")
		filter.MaxAge = &v
	}

	set, err := engine.Match(c.Context, query, filter, c.Int("top-k"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d candidates, %d results\n", set.CandidateCount, len(set.Results))
	for i, result := range set.Results {
		fmt.Printf("%2d. [%.4f] profile %d: %s\n", i+1, result.Score, result.Profile.Id, result.Text)
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var fields []string
	if raw := c.String("fields"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			fields = append(fields, strings.TrimSpace(field))
		}
	}

	report, err := db.NewAnalyzer(analyze.WithTopN(c.Int("top-n"))).Analyze(c.Context, fields...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func inspectCommand(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles, err := db.ProfileRepository().CountProfiles(c.Context, storage.Filter{})
	if err != nil {
		return err
	}
	vectors, err := db.Index().Count(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("profiles: %d\nvectors:  %d\n", profiles, vectors)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
