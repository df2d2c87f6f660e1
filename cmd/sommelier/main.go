// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/sommelier"
	"github.com/poiesic/sommelier/config"
	"github.com/poiesic/sommelier/core"
	"github.com/poiesic/sommelier/httpapi"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sommelier",
		Usage: "Wine recommendations ranked by semantic similarity and user feedback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides logging.level",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.PathEnvVar},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search one language partition of the catalog",
				ArgsUsage: "[query words]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "lang",
						Aliases: []string{"L"},
						Usage:   "Catalog language (en, fr, nl); unknown values use the default",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Free-text query; omitted lists the whole partition",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides server.addr",
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Embed catalog partitions ahead of the first search",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "lang",
						Aliases: []string{"L"},
						Usage:   "Languages to warm; default is every loaded partition",
					},
				},
			},
			feedbackCommand(),
		},
	}
}

// openRecommender loads the configuration named by the global flags and
// assembles a Recommender from it.
func openRecommender(c *cli.Context) (*sommelier.Recommender, *config.Config, error) {
	cfg, err := config.Load(c.String("config"), slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !c.IsSet("log-level") && cfg.Logging.Level != "" {
		if err := applyLogLevel(cfg.Logging.Level); err != nil {
			return nil, nil, err
		}
	}

	rec, err := sommelier.NewRecommender(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open recommender: %w", err)
	}
	return rec, cfg, nil
}

func searchCommand(c *cli.Context) error {
	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	query := c.String("query")
	if query == "" && c.Args().Present() {
		query = strings.Join(c.Args().Slice(), " ")
	}

	results, err := rec.Service().Search(c.Context, c.String("lang"), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(out, "Found %d wines\n", len(results))
	for i, r := range results {
		if r.Scores != nil {
			fmt.Fprintf(out, "%d: '%s' (%s)[%0.3f sim=%0.3f fb=%d]\n",
				i, r.Wine.Name, r.Wine.Key(), r.Scores.FinalScore, r.Scores.Similarity, r.Scores.FeedbackScore)
			continue
		}
		fmt.Fprintf(out, "%d: '%s' (%s)\n", i, r.Wine.Name, r.Wine.Key())
	}
	return nil
}

func warmCommand(c *cli.Context) error {
	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	idx := rec.Service().Index()
	if idx == nil {
		return errors.New("semantic search is disabled, nothing to warm")
	}

	langs := rec.Catalog().Languages()
	if names := c.StringSlice("lang"); len(names) > 0 {
		langs = make([]core.Language, 0, len(names))
		for _, name := range names {
			langs = append(langs, rec.Catalog().Resolve(name))
		}
	}

	if err := idx.Warm(c.Context, langs...); err != nil {
		return fmt.Errorf("warm failed: %w", err)
	}
	for _, lang := range langs {
		if entry, ok := idx.Peek(lang); ok {
			fmt.Fprintf(c.App.Writer, "%s: %d wines, %d embedding failures, version %s\n",
				lang, entry.Len(), entry.Failures, entry.Version)
		}
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	rec, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reloadOnHangup(ctx, rec)
	if cfg.Index.WarmOnStart {
		if idx := rec.Service().Index(); idx != nil {
			go func() {
				if err := idx.Warm(ctx, rec.Catalog().Languages()...); err != nil {
					slog.Warn("index warm-up interrupted", "err", err)
				}
			}()
		}
	}

	api := httpapi.New(rec.Service(), rec.FeedbackRepository(), httpapi.WithGatherer(rec.Registry()))
	srv := httpapi.NewHTTPServer(addr, api.Handler(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	fmt.Fprintf(os.Stderr, "Listening: %s\n", addr)
	fmt.Fprintf(os.Stderr, "Semantic search: %t\n", cfg.SemanticEnabled())
	fmt.Fprintf(os.Stderr, "Storage: %s\n", storageDescription(cfg))
	fmt.Fprintln(os.Stderr)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// reloadOnHangup re-reads the catalog on every SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, rec *sommelier.Recommender) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			_ = rec.Reload()
		}
	}
}

func storageDescription(cfg *config.Config) string {
	if cfg.Storage.InMemory {
		return "in-memory"
	}
	return cfg.Storage.Path
}

func setupLogger(c *cli.Context) error {
	return applyLogLevel(c.String("log-level"))
}

func applyLogLevel(name string) error {
	levelStr := strings.ToLower(name)

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
