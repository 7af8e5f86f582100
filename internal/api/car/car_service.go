package car

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for car listing operations.
type Service interface {
	SearchCars(ctx context.Context, criteria types.SearchCriteria) ([]types.CarSummary, error)
	GetCarByID(ctx context.Context, id int64) (*types.CarDetail, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	carRepo     Repository
	resultLimit int
}

func NewServiceImpl(carRepo Repository, resultLimit int, logger *slog.Logger) *ServiceImpl {
	if resultLimit <= 0 {
		resultLimit = 50
	}
	return &ServiceImpl{
		logger:      logger,
		carRepo:     carRepo,
		resultLimit: resultLimit,
	}
}

// SearchCars normalizes the criteria, records the search and returns matching
// listings. History persistence is best-effort and never fails the search.
func (s *ServiceImpl) SearchCars(ctx context.Context, criteria types.SearchCriteria) ([]types.CarSummary, error) {
	ctx, span := otel.Tracer("CarService").Start(ctx, "SearchCars", trace.WithAttributes(
		attribute.Int("search.limit", s.resultLimit),
	))
	defer span.End()

	c := criteria.Normalized()

	if !c.IsEmpty() {
		if _, err := s.carRepo.SaveSearchCriteria(ctx, c); err != nil {
			s.logger.WarnContext(ctx, "Failed to record search criteria", slog.Any("error", err))
		}
	}

	cars, err := s.carRepo.SearchCars(ctx, c, s.resultLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to search cars", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to search cars: %w", err)
	}

	span.SetAttributes(attribute.Int("search.results", len(cars)))
	span.SetStatus(codes.Ok, "Cars retrieved successfully")
	return cars, nil
}

// GetCarByID returns the full record for one listing, nil when absent.
func (s *ServiceImpl) GetCarByID(ctx context.Context, id int64) (*types.CarDetail, error) {
	ctx, span := otel.Tracer("CarService").Start(ctx, "GetCarByID", trace.WithAttributes(
		attribute.Int64("car.id", id),
	))
	defer span.End()

	car, err := s.carRepo.GetCarByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to get car", slog.Int64("id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to get car %d: %w", id, err)
	}

	span.SetStatus(codes.Ok, "Car retrieved")
	return car, nil
}
