package recommend

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewRecommendHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Analyze handles POST /api/analyze - returns AI recommendations for the criteria
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendHandler").Start(r.Context(), "Analyze")
	defer span.End()

	l := h.logger.With(slog.String("method", "Analyze"))

	var criteria types.SearchCriteria
	if err := api.DecodeJSONBody(w, r, &criteria); err != nil {
		l.WarnContext(ctx, "Invalid analyze request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := criteria.Validate(); err != nil {
		l.WarnContext(ctx, "Invalid analyze criteria", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid analyze criteria")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	recommendations, err := h.service.GetRecommendations(ctx, criteria)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate recommendations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.Get().AnalyzeRequestsTotal.Add(ctx, 1)

	api.WriteJSONResponse(w, r, http.StatusOK, types.AnalyzeResponse{
		Success:         true,
		Recommendations: recommendations,
	})

	l.InfoContext(ctx, "Recommendations generated", slog.Int("picks", len(recommendations.TopPicks)))
	span.SetStatus(codes.Ok, "Recommendations returned successfully")
}
