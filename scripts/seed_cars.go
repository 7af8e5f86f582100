package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/go-car-ai-suggestions/app/db"
	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/config"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/car"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

var (
	input     = flag.String("input", "cars.json", "path to a JSON file with an array of car listings")
	batchSize = flag.Int("batch", 100, "number of listings per upsert batch")
	workers   = flag.Int("workers", 4, "number of concurrent upsert workers")
)

// Seeds the cars table from a JSON dump of scraped listings. Listings are
// upserted in batches so re-running the script against the same dump only
// refreshes prices and descriptions instead of duplicating rows.
func main() {
	flag.Parse()
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Repository instrumentation expects the global instruments to exist
	metrics.InitAppMetrics()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build database config: %v", err)
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cars, err := loadListings(*input)
	if err != nil {
		log.Fatalf("Failed to load listings: %v", err)
	}
	logger.Info("Loaded listings", slog.String("file", *input), slog.Int("count", len(cars)))

	repo := car.NewCarRepository(pool, logger)

	inserted, err := seed(ctx, repo, cars, *batchSize, *workers)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	logger.Info("Seeding complete",
		slog.Int("total", len(cars)),
		slog.Int("inserted", inserted),
		slog.Int("updated", len(cars)-inserted))
}

func loadListings(path string) ([]types.CarDetail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cars []types.CarDetail
	if err := json.Unmarshal(data, &cars); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cars, nil
}

// seed fans batches out to a bounded worker group and returns the number of
// newly inserted rows across all batches.
func seed(ctx context.Context, repo car.Repository, cars []types.CarDetail, batchSize, workers int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make(chan int, (len(cars)/batchSize)+1)
	for start := 0; start < len(cars); start += batchSize {
		end := start + batchSize
		if end > len(cars) {
			end = len(cars)
		}
		batch := cars[start:end]
		g.Go(func() error {
			inserted, err := repo.UpsertCars(ctx, batch)
			if err != nil {
				return fmt.Errorf("upserting batch of %d: %w", len(batch), err)
			}
			results <- inserted
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(results)

	total := 0
	for n := range results {
		total += n
	}
	return total, nil
}
