package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

func newQuestionServiceForTest(repo *MockQuestionRepository, cacheService *MockCacheService) *questionService {
	return NewQuestionService(repo, cacheService, utils.NewDevelopmentLogger()).(*questionService)
}

func TestQuestionService_SelectQuestions(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		poolIDs     []string
		expectError bool
		checkError  func(t *testing.T, err error)
	}{
		{
			name:    "selects requested number from larger pool",
			count:   3,
			poolIDs: []string{"q1", "q2", "q3", "q4", "q5"},
		},
		{
			name:    "selects whole pool when count matches exactly",
			count:   4,
			poolIDs: []string{"q1", "q2", "q3", "q4"},
		},
		{
			name:        "fails before shuffling when pool is too small",
			count:       5,
			poolIDs:     []string{"q1", "q2", "q3"},
			expectError: true,
			checkError: func(t *testing.T, err error) {
				var insufficient *InsufficientQuestionsError
				assert.ErrorAs(t, err, &insufficient)
				assert.Equal(t, 3, insufficient.Found)
				assert.Equal(t, 5, insufficient.Need)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockQuestionRepository{}
			mockRepo.On("ListIDs", mock.Anything, mock.Anything).Return(append([]string(nil), tt.poolIDs...), nil)

			service := newQuestionServiceForTest(mockRepo, passthroughCache())

			ids, err := service.SelectQuestions(context.Background(), tt.count, nil, nil)

			if tt.expectError {
				assert.Error(t, err)
				if tt.checkError != nil {
					tt.checkError(t, err)
				}
				return
			}

			assert.NoError(t, err)
			assert.Len(t, ids, tt.count)

			pool := make(map[string]bool, len(tt.poolIDs))
			for _, id := range tt.poolIDs {
				pool[id] = true
			}
			seen := make(map[string]bool, len(ids))
			for _, id := range ids {
				assert.True(t, pool[id], "selected id %s not in pool", id)
				assert.False(t, seen[id], "id %s selected twice", id)
				seen[id] = true
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestQuestionService_SelectQuestions_ShuffleCoversWholePool(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	mockRepo.On("ListIDs", mock.Anything, mock.Anything).Return([]string{"q1", "q2", "q3", "q4"}, nil)

	service := newQuestionServiceForTest(mockRepo, passthroughCache())

	// A fixed reversing shuffle proves selection takes the prefix of the
	// shuffled pool, not the first ids of the raw listing.
	service.shuffle = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}

	ids, err := service.SelectQuestions(context.Background(), 2, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"q4", "q3"}, ids)
}

func TestQuestionService_SelectQuestions_PassesFilters(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	expectedFilters := repositories.QuestionFilters{
		Subtopics:    []string{"hemodynamics"},
		Difficulties: []models.DifficultyLevel{models.DifficultyHard},
	}
	mockRepo.On("ListIDs", mock.Anything, expectedFilters).Return([]string{"q1", "q2"}, nil)

	service := newQuestionServiceForTest(mockRepo, passthroughCache())

	_, err := service.SelectQuestions(context.Background(), 2,
		[]string{"hemodynamics"}, []models.DifficultyLevel{models.DifficultyHard})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestQuestionService_GetQuestionsWithAnswers_MissingIDs(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	mockRepo.On("GetByIDs", mock.Anything, []string{"q1", "q2"}).
		Return([]*models.Question{testQuestion("q1", "sub", models.DifficultyMedium, models.OptionA)}, nil)

	service := newQuestionServiceForTest(mockRepo, passthroughCache())

	_, err := service.GetQuestionsWithAnswers(context.Background(), []string{"q1", "q2"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuestionService_GetQuestionsForExam_HidesAnswers(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	mockRepo.On("GetByIDs", mock.Anything, []string{"q1"}).
		Return([]*models.Question{testQuestion("q1", "sub", models.DifficultyMedium, models.OptionB)}, nil)

	service := newQuestionServiceForTest(mockRepo, passthroughCache())

	views, err := service.GetQuestionsForExam(context.Background(), []string{"q1"})
	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, "q1", views[0].ID)
	assert.NotEmpty(t, views[0].Stem)
}

func TestQuestionService_GetSubtopics_CachesResult(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	subtopics := []models.SubtopicInfo{
		{Name: "aortic disease", QuestionCount: 12},
		{Name: "hemodynamics", QuestionCount: 30},
	}
	mockRepo.On("ListSubtopics", mock.Anything).Return(subtopics, nil).Once()

	mockCache := passthroughCache()
	service := newQuestionServiceForTest(mockRepo, mockCache)

	got, err := service.GetSubtopics(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, subtopics, got)

	mockRepo.AssertExpectations(t)
	mockCache.AssertCalled(t, "Set", mock.Anything, subtopicsCacheKey, subtopics, catalogCacheTTL)
}

func TestQuestionService_CountQuestions(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	mockRepo.On("Count", mock.Anything, mock.Anything).Return(int64(42), nil)

	service := newQuestionServiceForTest(mockRepo, passthroughCache())

	count, err := service.CountQuestions(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestQuestionService_RefreshCatalogCache(t *testing.T) {
	mockRepo := &MockQuestionRepository{}
	mockCache := &MockCacheService{}
	mockCache.On("Delete", mock.Anything, subtopicsCacheKey).Return(nil)
	mockCache.On("DeletePattern", mock.Anything, countCachePattern).Return(nil)

	service := newQuestionServiceForTest(mockRepo, mockCache)

	err := service.RefreshCatalogCache(context.Background())
	assert.NoError(t, err)
	mockCache.AssertExpectations(t)
}
