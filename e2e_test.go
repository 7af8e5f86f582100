package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/car"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/api/recommend"
	api "github.com/FACorreiaa/go-car-ai-suggestions/internal/router"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/ui"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

type stubCarService struct{ mock.Mock }

func (s *stubCarService) SearchCars(ctx context.Context, criteria types.SearchCriteria) ([]types.CarSummary, error) {
	args := s.Called(ctx, criteria)
	cars, _ := args.Get(0).([]types.CarSummary)
	return cars, args.Error(1)
}

func (s *stubCarService) GetCarByID(ctx context.Context, id int64) (*types.CarDetail, error) {
	args := s.Called(ctx, id)
	detail, _ := args.Get(0).(*types.CarDetail)
	return detail, args.Error(1)
}

type stubRecommendService struct{ mock.Mock }

func (s *stubRecommendService) GetRecommendations(ctx context.Context, criteria types.SearchCriteria) (*types.RecommendationResult, error) {
	args := s.Called(ctx, criteria)
	rec, _ := args.Get(0).(*types.RecommendationResult)
	return rec, args.Error(1)
}

// E2ETestSuite exercises the complete search / analyze / detail workflow
// through the real router and handlers, with the service layer stubbed out.
type E2ETestSuite struct {
	suite.Suite
	server       *httptest.Server
	client       *http.Client
	carSvc       *stubCarService
	recommendSvc *stubRecommendService
}

func (s *E2ETestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s.carSvc = &stubCarService{}
	s.recommendSvc = &stubRecommendService{}

	router := api.SetupRouter(&api.Config{
		CarHandler:       car.NewCarHandler(s.carSvc, logger),
		RecommendHandler: recommend.NewRecommendHandler(s.recommendSvc, logger),
		Frontend:         ui.Handler(),
	})

	s.server = httptest.NewServer(router)
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *E2ETestSuite) TearDownTest() {
	s.server.Close()
}

func (s *E2ETestSuite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(s.T(), err)

	resp, err := s.client.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(s.T(), err)
	return resp
}

func (s *E2ETestSuite) TestSearchThenAnalyzeThenDetail() {
	criteria := types.SearchCriteria{Make: "Mazda"}
	summary := types.CarSummary{
		ID: 42, Year: 2021, Make: "Mazda", Model: "CX-5",
		Price: 24500, Mileage: 31000, BodyType: "suv", Transmission: "automatic",
	}

	s.carSvc.On("SearchCars", mock.Anything, criteria).Return([]types.CarSummary{summary}, nil)
	s.recommendSvc.On("GetRecommendations", mock.Anything, criteria).Return(&types.RecommendationResult{
		Summary: "One strong match.",
		TopPicks: []types.TopPick{
			{ID: 42, Year: 2021, Make: "Mazda", Model: "CX-5", Price: 24500, Reason: "Low mileage for the price."},
		},
	}, nil)
	s.carSvc.On("GetCarByID", mock.Anything, int64(42)).Return(&types.CarDetail{
		CarSummary: summary,
		VIN:        "JM3KFBDM0M0123456",
		Details:    map[string]any{"doors": float64(4)},
	}, nil)

	// Step 1: search
	resp := s.postJSON("/api/search", criteria)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var searchResp types.SearchResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&searchResp))
	s.True(searchResp.Success)
	s.Len(searchResp.Cars, 1)
	s.Equal(int64(42), searchResp.Cars[0].ID)

	// Step 2: analyze the same criteria
	resp = s.postJSON("/api/analyze", criteria)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var analyzeResp types.AnalyzeResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&analyzeResp))
	s.True(analyzeResp.Success)
	s.Require().NotNil(analyzeResp.Recommendations)
	s.Require().Len(analyzeResp.Recommendations.TopPicks, 1)
	s.Equal(int64(42), analyzeResp.Recommendations.TopPicks[0].ID)

	// Step 3: open the detail view for the top pick
	resp, err := s.client.Get(fmt.Sprintf("%s/api/car/%d", s.server.URL, analyzeResp.Recommendations.TopPicks[0].ID))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var carResp types.CarResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&carResp))
	s.True(carResp.Success)
	s.Require().NotNil(carResp.Car)
	s.Equal("JM3KFBDM0M0123456", carResp.Car.VIN)
}

func (s *E2ETestSuite) TestEmptySearchStillAnalyzes() {
	empty := types.SearchCriteria{}

	s.carSvc.On("SearchCars", mock.Anything, empty).Return([]types.CarSummary{}, nil)
	s.recommendSvc.On("GetRecommendations", mock.Anything, empty).Return(&types.RecommendationResult{
		Message: "No cars matched your search criteria. Try widening your filters.",
	}, nil)

	resp := s.postJSON("/api/search", empty)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `"cars":[]`)

	resp = s.postJSON("/api/analyze", empty)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	body, err = io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `"recommendations":"No cars matched`)
}

func (s *E2ETestSuite) TestFrontendAndAPIShareOneServer() {
	resp, err := s.client.Get(s.server.URL + "/")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.True(strings.Contains(string(body), "AutoWiseAI"))

	resp, err = s.client.Get(s.server.URL + "/ping")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
