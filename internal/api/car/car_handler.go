package car

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCarHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// SearchCars handles POST /api/search - returns listings matching the criteria
func (h *Handler) SearchCars(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CarHandler").Start(r.Context(), "SearchCars")
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchCars"))

	var criteria types.SearchCriteria
	if err := api.DecodeJSONBody(w, r, &criteria); err != nil {
		l.WarnContext(ctx, "Invalid search request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := criteria.Validate(); err != nil {
		l.WarnContext(ctx, "Invalid search criteria", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid search criteria")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cars, err := h.service.SearchCars(ctx, criteria)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search cars", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if cars == nil {
		// The frontend distinguishes "no results" by an empty array, never null
		cars = []types.CarSummary{}
	}

	metrics.Get().SearchRequestsTotal.Add(ctx, 1)

	api.WriteJSONResponse(w, r, http.StatusOK, types.SearchResponse{
		Success: true,
		Cars:    cars,
	})

	l.InfoContext(ctx, "Search completed", slog.Int("count", len(cars)))
	span.SetStatus(codes.Ok, "Cars returned successfully")
}

// GetCar handles GET /api/car/{id} - returns the full record for one listing
func (h *Handler) GetCar(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CarHandler").Start(r.Context(), "GetCar")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetCar"))

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		l.WarnContext(ctx, "Invalid car id", slog.String("id", chi.URLParam(r, "id")))
		span.SetStatus(codes.Error, "Invalid car id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid car id")
		return
	}

	car, err := h.service.GetCarByID(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get car", slog.Int64("id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if car == nil {
		l.InfoContext(ctx, "Car not found", slog.Int64("id", id))
		span.SetStatus(codes.Error, "Car not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Car not found")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.CarResponse{
		Success: true,
		Car:     car,
	})
	span.SetStatus(codes.Ok, "Car returned successfully")
}
