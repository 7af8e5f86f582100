package recommend

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-car-ai-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-car-ai-suggestions/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

// MockCarRepository is a mock implementation of car.Repository
type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) SearchCars(ctx context.Context, criteria types.SearchCriteria, limit int) ([]types.CarSummary, error) {
	args := m.Called(ctx, criteria, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CarSummary), args.Error(1)
}

func (m *MockCarRepository) SearchCarDetails(ctx context.Context, criteria types.SearchCriteria, limit int) ([]types.CarDetail, error) {
	args := m.Called(ctx, criteria, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CarDetail), args.Error(1)
}

func (m *MockCarRepository) GetCarByID(ctx context.Context, id int64) (*types.CarDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CarDetail), args.Error(1)
}

func (m *MockCarRepository) UpsertCars(ctx context.Context, cars []types.CarDetail) (int, error) {
	args := m.Called(ctx, cars)
	return args.Int(0), args.Error(1)
}

func (m *MockCarRepository) SaveSearchCriteria(ctx context.Context, criteria types.SearchCriteria) (uuid.UUID, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCarRepository) UpdateCarAnalysis(ctx context.Context, id int64, analysis string) error {
	args := m.Called(ctx, id, analysis)
	return args.Error(0)
}

// MockAIProvider is a mock implementation of AIProvider
type MockAIProvider struct {
	mock.Mock
}

func (m *MockAIProvider) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, config)
	return args.String(0), args.Error(1)
}

func testCars() []types.CarDetail {
	return []types.CarDetail{
		{CarSummary: types.CarSummary{ID: 3, Year: 2019, Make: "Mazda", Model: "3", Price: 17500}},
		{CarSummary: types.CarSummary{ID: 9, Year: 2017, Make: "Toyota", Model: "Corolla", Price: 14200}},
	}
}

func TestGetRecommendations(t *testing.T) {
	logger := slog.Default()

	t.Run("StructuredReply", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Mazda"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(`{"summary":"ok","top_picks":[{"id":3,"year":2019,"make":"Mazda","model":"3","price":17500,"reason":"low mileage"}],"considerations":"none"}`, nil).Once()
		mockRepo.On("UpdateCarAnalysis", mock.Anything, int64(3), "low mileage").Return(nil).Once()

		result, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "ok", result.Summary)
		require.Len(t, result.TopPicks, 1)
		assert.Equal(t, int64(3), result.TopPicks[0].ID)

		mockRepo.AssertExpectations(t)
		mockAI.AssertExpectations(t)
	})

	t.Run("SecondCallServedFromCache", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Toyota"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return("take the Corolla", nil).Once()

		first, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		second, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)

		assert.Equal(t, first.Message, second.Message)
		mockAI.AssertNumberOfCalls(t, "GenerateContent", 1)
		mockRepo.AssertNumberOfCalls(t, "SearchCarDetails", 1)
	})

	t.Run("NoCandidatesYieldsPlainMessage", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Lada"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return([]types.CarDetail{}, nil).Once()

		result, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		assert.True(t, result.IsPlain())
		assert.Contains(t, result.Message, "No cars matched")
		mockAI.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LLMErrorPropagates", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Mazda"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return("", errors.New("quota exceeded")).Once()

		_, err := service.GetRecommendations(context.Background(), criteria)
		assert.ErrorContains(t, err, "failed to generate recommendations")
	})

	t.Run("EmptyReplyFallsBackToPriceOrder", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Model: "anything"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return("", nil).Once()
		mockRepo.On("UpdateCarAnalysis", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		require.Len(t, result.TopPicks, 2)
		assert.Equal(t, int64(9), result.TopPicks[0].ID, "cheapest listing ranks first")
		assert.Equal(t, int64(3), result.TopPicks[1].ID)
	})

	t.Run("ReasonlessPickGetsDedicatedAnalysis", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Mazda"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		// Ranking reply omits the reason, a follow-up single-car call fills it in
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(`{"summary":"s","top_picks":[{"id":3,"year":2019,"make":"Mazda","model":"3","price":17500}]}`, nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return("Solid value for the mileage.", nil).Once()
		mockRepo.On("UpdateCarAnalysis", mock.Anything, int64(3), "Solid value for the mileage.").Return(nil).Once()

		result, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		require.Len(t, result.TopPicks, 1)

		mockRepo.AssertExpectations(t)
		mockAI.AssertNumberOfCalls(t, "GenerateContent", 2)
	})

	t.Run("PersistFailureDoesNotFailRequest", func(t *testing.T) {
		mockRepo := new(MockCarRepository)
		mockAI := new(MockAIProvider)
		service := NewServiceImpl(mockRepo, mockAI, 50, time.Minute, logger)

		criteria := types.SearchCriteria{Make: "Honda"}
		mockRepo.On("SearchCarDetails", mock.Anything, criteria, 50).Return(testCars(), nil).Once()
		mockAI.On("GenerateContent", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(`{"summary":"s","top_picks":[{"id":3,"year":2019,"make":"Mazda","model":"3","price":17500,"reason":"r"}]}`, nil).Once()
		mockRepo.On("UpdateCarAnalysis", mock.Anything, int64(3), "r").
			Return(errors.New("db down")).Once()

		result, err := service.GetRecommendations(context.Background(), criteria)
		require.NoError(t, err)
		assert.Equal(t, "s", result.Summary)
	})
}
