// Package main exports an airline's departed flights, including their full
// status history, as zstd-compressed NDJSON. One flight per line, suitable
// for archival or downstream analytics ingestion.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/klauspost/compress/zstd"

	"airline/internal/config"
	"airline/internal/db"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	airlineName := fs.String("airline", "airline", "airline whose departed flights are exported")
	outPath := fs.String("out", "departed-flights.ndjson.zst", "output file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var dbCfg config.DatabaseConfig
	if err := envconfig.Process("", &dbCfg); err != nil {
		return fmt.Errorf("loading database configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	airlineRepo := db.NewAirlineRepository(pool)
	flightRepo := db.NewFlightRepository(pool)

	airline, err := airlineRepo.GetByName(ctx, *airlineName)
	if err != nil {
		return fmt.Errorf("looking up airline: %w", err)
	}

	departed, err := flightRepo.ListByAirline(ctx, airline.ID, true)
	if err != nil {
		return fmt.Errorf("listing departed flights: %w", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, flight := range departed {
		if err := enc.Encode(flight); err != nil {
			zw.Close()
			return fmt.Errorf("encoding flight %s: %w", flight.ID, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	logger.Info("export complete",
		"airline", airline.Name,
		"flights", len(departed),
		"path", *outPath,
	)
	return nil
}
