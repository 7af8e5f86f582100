package car

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var _ Repository = (*PostgresCarRepository)(nil)

// PgxPool is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute pgxmock.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository defines the storage contract for car listings.
type Repository interface {
	SearchCars(ctx context.Context, criteria types.SearchCriteria, limit int) ([]types.CarSummary, error)
	SearchCarDetails(ctx context.Context, criteria types.SearchCriteria, limit int) ([]types.CarDetail, error)
	GetCarByID(ctx context.Context, id int64) (*types.CarDetail, error)
	UpsertCars(ctx context.Context, cars []types.CarDetail) (int, error)
	SaveSearchCriteria(ctx context.Context, criteria types.SearchCriteria) (uuid.UUID, error)
	UpdateCarAnalysis(ctx context.Context, id int64, analysis string) error
}

type PostgresCarRepository struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewCarRepository(pgpool PgxPool, logger *slog.Logger) *PostgresCarRepository {
	return &PostgresCarRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

const carSummaryColumns = `id, COALESCE(year, 0), COALESCE(make, ''), COALESCE(model, ''),
       COALESCE(price, 0), COALESCE(mileage, 0), COALESCE(body_type, ''),
       COALESCE(transmission, ''), COALESCE(exterior_color, '')`

const carDetailColumns = carSummaryColumns + `,
       COALESCE(vin, ''), COALESCE(interior_color, ''), COALESCE(description, ''),
       COALESCE(source, ''), COALESCE(url, ''), details,
       COALESCE(analysis, ''), scraped_at`

// criteriaFilter translates normalized criteria into a WHERE fragment and its
// positional arguments. Empty criteria yield an empty fragment.
func criteriaFilter(c types.SearchCriteria) (string, []any) {
	var clauses []string
	var args []any

	addClause := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if c.Make != "" {
		addClause("make ILIKE $%d", "%"+c.Make+"%")
	}
	if c.Model != "" {
		addClause("model ILIKE $%d", "%"+c.Model+"%")
	}
	if c.Year != nil {
		if c.Year.Min != nil {
			addClause("year >= $%d", *c.Year.Min)
		}
		if c.Year.Max != nil {
			addClause("year <= $%d", *c.Year.Max)
		}
	}
	if c.Price != nil {
		if c.Price.Min != nil {
			addClause("price >= $%d", *c.Price.Min)
		}
		if c.Price.Max != nil {
			addClause("price <= $%d", *c.Price.Max)
		}
	}
	if c.Mileage != nil {
		if c.Mileage.Min != nil {
			addClause("mileage >= $%d", *c.Mileage.Min)
		}
		if c.Mileage.Max != nil {
			addClause("mileage <= $%d", *c.Mileage.Max)
		}
	}
	if c.BodyType != "" {
		addClause("body_type = $%d", c.BodyType)
	}
	if c.Transmission != "" {
		addClause("transmission = $%d", c.Transmission)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// observeQuery records query duration and counts failures, labelled by the
// repository method that ran the query.
func observeQuery(ctx context.Context, queryName string, start time.Time, err *error) {
	attrs := metric.WithAttributes(attribute.String("query", queryName))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if *err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// SearchCars builds a WHERE clause from the normalized criteria. An empty
// criteria object returns the most recently scraped listings.
func (r *PostgresCarRepository) SearchCars(ctx context.Context, criteria types.SearchCriteria, limit int) (cars []types.CarSummary, err error) {
	defer observeQuery(ctx, "SearchCars", time.Now(), &err)

	where, args := criteriaFilter(criteria.Normalized())

	args = append(args, limit)
	query := "SELECT " + carSummaryColumns + " FROM cars" + where +
		fmt.Sprintf(" ORDER BY scraped_at DESC LIMIT $%d", len(args))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var car types.CarSummary
		if err := rows.Scan(
			&car.ID, &car.Year, &car.Make, &car.Model, &car.Price,
			&car.Mileage, &car.BodyType, &car.Transmission, &car.ExteriorColor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan car row: %w", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate car rows: %w", err)
	}
	return cars, nil
}

// SearchCarDetails returns full records for matching listings, details and
// stored analysis included, for the recommendation pipeline.
func (r *PostgresCarRepository) SearchCarDetails(ctx context.Context, criteria types.SearchCriteria, limit int) (cars []types.CarDetail, err error) {
	defer observeQuery(ctx, "SearchCarDetails", time.Now(), &err)

	where, args := criteriaFilter(criteria.Normalized())

	args = append(args, limit)
	query := "SELECT " + carDetailColumns + " FROM cars" + where +
		fmt.Sprintf(" ORDER BY scraped_at DESC LIMIT $%d", len(args))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query car details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var car types.CarDetail
		if err := rows.Scan(
			&car.ID, &car.Year, &car.Make, &car.Model, &car.Price,
			&car.Mileage, &car.BodyType, &car.Transmission, &car.ExteriorColor,
			&car.VIN, &car.InteriorColor, &car.Description,
			&car.Source, &car.URL, &car.Details,
			&car.Analysis, &car.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan car detail row: %w", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate car detail rows: %w", err)
	}
	return cars, nil
}

// GetCarByID returns the full listing record, or nil when no such car exists.
func (r *PostgresCarRepository) GetCarByID(ctx context.Context, id int64) (detail *types.CarDetail, err error) {
	defer observeQuery(ctx, "GetCarByID", time.Now(), &err)

	query := "SELECT " + carDetailColumns + `
        FROM cars
        WHERE id = $1
    `
	var car types.CarDetail
	if err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&car.ID, &car.Year, &car.Make, &car.Model, &car.Price,
		&car.Mileage, &car.BodyType, &car.Transmission, &car.ExteriorColor,
		&car.VIN, &car.InteriorColor, &car.Description,
		&car.Source, &car.URL, &car.Details,
		&car.Analysis, &car.ScrapedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find car %d: %w", id, err)
	}
	return &car, nil
}

// UpsertCars inserts listings, updating price, mileage and details for
// listings already known by (source, vin). Returns the number of new rows.
func (r *PostgresCarRepository) UpsertCars(ctx context.Context, cars []types.CarDetail) (added int, err error) {
	defer observeQuery(ctx, "UpsertCars", time.Now(), &err)

	query := `
        INSERT INTO cars (
            source, vin, year, make, model, price, mileage, body_type,
            transmission, exterior_color, interior_color, description, url, details
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (source, vin) DO UPDATE SET
            price = EXCLUDED.price,
            mileage = EXCLUDED.mileage,
            details = EXCLUDED.details,
            scraped_at = now()
        RETURNING (xmax = 0)
    `
	for _, car := range cars {
		detailsJSON, err := json.Marshal(car.Details)
		if err != nil {
			return added, fmt.Errorf("failed to marshal details for %s: %w", car.VIN, err)
		}
		var inserted bool
		if err := r.pgpool.QueryRow(ctx, query,
			car.Source, car.VIN, car.Year, car.Make, car.Model, car.Price,
			car.Mileage, car.BodyType, car.Transmission, car.ExteriorColor,
			car.InteriorColor, car.Description, car.URL, detailsJSON,
		).Scan(&inserted); err != nil {
			return added, fmt.Errorf("failed to upsert car %s/%s: %w", car.Source, car.VIN, err)
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// SaveSearchCriteria records a search for later analysis.
func (r *PostgresCarRepository) SaveSearchCriteria(ctx context.Context, criteria types.SearchCriteria) (id uuid.UUID, err error) {
	defer observeQuery(ctx, "SaveSearchCriteria", time.Now(), &err)

	criteriaJSON, err := json.Marshal(criteria.Normalized())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal criteria: %w", err)
	}

	query := `INSERT INTO search_history (criteria) VALUES ($1) RETURNING id`
	if err := r.pgpool.QueryRow(ctx, query, criteriaJSON).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save search criteria: %w", err)
	}
	return id, nil
}

// UpdateCarAnalysis stores the LLM analysis for a listing so later
// recommendation runs can reuse it.
func (r *PostgresCarRepository) UpdateCarAnalysis(ctx context.Context, id int64, analysis string) (err error) {
	defer observeQuery(ctx, "UpdateCarAnalysis", time.Now(), &err)

	query := `UPDATE cars SET analysis = $1, analysis_timestamp = now() WHERE id = $2`
	tag, err := r.pgpool.Exec(ctx, query, analysis, id)
	if err != nil {
		return fmt.Errorf("failed to update analysis for car %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("car %d not found", id)
	}
	return nil
}
