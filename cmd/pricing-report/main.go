// Command pricing-report renders the five pricing trend charts and a workbook
// into a directory. The source is selected by the same environment as the
// server (PRICING_SOURCE, MONGO_URI, DATABASE_URL, PRICING_FILE).
//
// With -import it instead loads a JSON or NDJSON export into the configured
// Mongo or Postgres source and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricetrends/internal/platform/config"
	"pricetrends/internal/platform/logger"
	"pricetrends/internal/platform/metrics"
	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/render"
	"pricetrends/internal/pricing/service"
	"pricetrends/internal/pricing/store"
)

func main() {
	var (
		granularity = flag.String("granularity", "daily", "aggregation window: daily or weekly")
		approved    = flag.String("approved", "no", "yes keeps only approved records")
		from        = flag.String("from", "", "earliest creation time, inclusive")
		to          = flag.String("to", "", "latest creation time, inclusive; a bare date covers the whole day")
		out         = flag.String("out", "pricing-report", "output directory")
		file        = flag.String("file", "", "read documents from this JSON or NDJSON export instead of the configured source")
		importPath  = flag.String("import", "", "load this JSON or NDJSON export into the configured source and exit")
	)
	flag.Parse()

	cfg := config.FromEnv()
	if *file != "" {
		cfg.Source = config.SourceFile
		cfg.File.Path = *file
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if *importPath != "" {
		if *file != "" {
			fmt.Fprintln(os.Stderr, "Error: -import and -file cannot be combined")
			os.Exit(2)
		}
		if err := runImport(cfg, *importPath, log); err != nil {
			log.Error("pricing import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	params, err := service.ParseParams(*granularity, *approved, *from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, params, *out, log); err != nil {
		log.Error("pricing report failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, params models.Params, out string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close(context.Background()) }()

	svc, err := service.New(src.Source, service.WithLogger(log), service.WithMetrics(metrics.New()))
	if err != nil {
		return err
	}
	dashboard, err := svc.Dashboard(ctx, params)
	if err != nil {
		return err
	}

	paths, err := render.DirSink{Dir: out}.Write(dashboard)
	if err != nil {
		return err
	}
	log.Info("pricing report written",
		"run_id", dashboard.RunID,
		"records", dashboard.Records,
		"skipped", dashboard.Skipped,
		"files", paths,
	)
	return nil
}

func runImport(cfg config.Server, path string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close(context.Background()) }()

	n, err := store.Import(ctx, dst.Source, f)
	if err != nil {
		return err
	}
	log.Info("pricing documents imported",
		"source", cfg.Source,
		"path", path,
		"documents", n,
	)
	return nil
}
