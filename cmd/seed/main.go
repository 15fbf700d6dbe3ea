// Command seed inserts the sample sighting reports into the report store so a
// fresh deployment has data on the map and in the recent feed.
//
// Usage:
//
//	go run ./cmd/seed            # insert into MONGO_URI / MONGO_DB
//	go run ./cmd/seed -dry-run   # print the reports as JSON instead
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sightings/internal/adapter/mongo"
	"github.com/couchcryptid/sightings/internal/config"
	"github.com/couchcryptid/sightings/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dryRun := flag.Bool("dry-run", false, "print reports as JSON without writing them")
	at := flag.String("at", "", "reference time for report timestamps (RFC 3339, default now)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	clock := clockwork.NewRealClock()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t)
	}

	inputs := seedInputs(clock.Now())

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inputs)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gateway, err := mongo.Connect(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer gateway.Close(context.Background()) //nolint:errcheck // best-effort disconnect

	if err := gateway.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	for _, in := range inputs {
		r, err := gateway.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("insert %q: %w", in.Location, err)
		}
		log.Printf("inserted %s: %s", r.ID, r.Location)
	}
	log.Printf("total: %d reports", len(inputs))
	return nil
}

// seedInputs converts the sample reports to store inputs with timestamps
// relative to now.
func seedInputs(now time.Time) []domain.ReportInput {
	samples := domain.SampleReports(now)
	inputs := make([]domain.ReportInput, len(samples))
	for i, s := range samples {
		inputs[i] = domain.ReportInput{
			Location:    s.Location,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
			Description: s.Description,
			Timestamp:   s.Timestamp,
			Images:      s.Images,
		}
	}
	return inputs
}
