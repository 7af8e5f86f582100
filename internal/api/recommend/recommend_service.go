package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/car"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// AIProvider is the completion contract the service needs from the Gemini
// wrapper. Narrowed to an interface so tests can stub the model.
type AIProvider interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Service defines the business logic contract for recommendations.
type Service interface {
	GetRecommendations(ctx context.Context, criteria types.SearchCriteria) (*types.RecommendationResult, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	carRepo     car.Repository
	ai          AIProvider
	cache       *cache.Cache
	maxListings int
	cacheTTL    time.Duration
}

func NewServiceImpl(carRepo car.Repository, ai AIProvider, maxListings int, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if maxListings <= 0 {
		maxListings = 50
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &ServiceImpl{
		logger:      logger,
		carRepo:     carRepo,
		ai:          ai,
		cache:       cache.New(cacheTTL, 10*time.Minute),
		maxListings: maxListings,
		cacheTTL:    cacheTTL,
	}
}

// GetRecommendations ranks the listings matching the criteria through the
// LLM. Results are cached per normalized criteria so repeated requests for
// the same filters do not burn model quota.
func (s *ServiceImpl) GetRecommendations(ctx context.Context, criteria types.SearchCriteria) (*types.RecommendationResult, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "GetRecommendations")
	defer span.End()

	c := criteria.Normalized()
	cacheKey, err := cacheKeyFor(c)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("cache.key", cacheKey))

	if cached, found := s.cache.Get(cacheKey); found {
		s.logger.DebugContext(ctx, "Recommendation cache hit", slog.String("key", cacheKey))
		span.SetStatus(codes.Ok, "Served from cache")
		result := cached.(types.RecommendationResult)
		return &result, nil
	}

	cars, err := s.carRepo.SearchCarDetails(ctx, c, s.maxListings)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to load candidate cars", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to load cars for analysis: %w", err)
	}

	if len(cars) == 0 {
		result := types.RecommendationResult{
			Message: "No cars matched your search criteria. Try widening your filters.",
		}
		s.cache.Set(cacheKey, result, s.cacheTTL)
		span.SetStatus(codes.Ok, "No candidates")
		return &result, nil
	}
	span.SetAttributes(attribute.Int("candidates", len(cars)))

	prompt := buildRankingPrompt(cars, c)

	start := time.Now()
	reply, err := s.ai.GenerateContent(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.7)),
	})
	metrics.Get().LlmRequestDurationSecs.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "LLM completion failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "LLM request failed")
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}

	var result types.RecommendationResult
	if reply == "" {
		// The model gave us nothing usable, rank by price instead
		result = priceFallback(cars)
	} else {
		result = parseRecommendations(reply)
	}

	s.persistPickAnalyses(ctx, result.TopPicks, cars, c)

	s.cache.Set(cacheKey, result, s.cacheTTL)
	span.SetStatus(codes.Ok, "Recommendations generated")
	return &result, nil
}

func cacheKeyFor(c types.SearchCriteria) (string, error) {
	key, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return string(key), nil
}

// priceFallback mirrors the cheapest-first ordering used when the model
// output is unusable.
func priceFallback(cars []types.CarDetail) types.RecommendationResult {
	sorted := make([]types.CarDetail, len(cars))
	copy(sorted, cars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	picks := make([]types.TopPick, 0, 3)
	for _, c := range sorted {
		if len(picks) == 3 {
			break
		}
		picks = append(picks, types.TopPick{
			ID:     c.ID,
			Year:   c.Year,
			Make:   c.Make,
			Model:  c.Model,
			Price:  c.Price,
			Reason: "Lowest price among the matching listings.",
		})
	}
	return types.RecommendationResult{
		Summary:  "Ranked by price; the analysis service returned no usable assessment.",
		TopPicks: picks,
	}
}

// persistPickAnalyses stores each pick's justification on the listing so the
// next run can feed it back into the prompt. A pick that came back without a
// reason gets a dedicated single-car assessment instead. Best-effort only.
func (s *ServiceImpl) persistPickAnalyses(ctx context.Context, picks []types.TopPick, cars []types.CarDetail, criteria types.SearchCriteria) {
	byID := make(map[int64]types.CarDetail, len(cars))
	for _, c := range cars {
		byID[c.ID] = c
	}

	for _, pick := range picks {
		if pick.ID == 0 {
			continue
		}
		analysis := pick.Reason
		if analysis == "" {
			detail, ok := byID[pick.ID]
			if !ok {
				continue
			}
			generated, err := s.ai.GenerateContent(ctx, buildAnalysisPrompt(detail, criteria), nil)
			if err != nil || generated == "" {
				s.logger.WarnContext(ctx, "Failed to generate single-car analysis",
					slog.Int64("car_id", pick.ID), slog.Any("error", err))
				continue
			}
			analysis = generated
		}
		if err := s.carRepo.UpdateCarAnalysis(ctx, pick.ID, analysis); err != nil {
			s.logger.WarnContext(ctx, "Failed to persist pick analysis",
				slog.Int64("car_id", pick.ID), slog.Any("error", err))
		}
	}
}
