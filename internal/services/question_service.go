package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/radcert-prep/exam-service/internal/cache"
	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

const (
	subtopicsCacheKey = "questions:subtopics"
	countCachePattern = "questions:count:*"
	catalogCacheTTL   = 10 * time.Minute
)

type questionService struct {
	repo    repositories.QuestionRepository
	cache   cache.CacheService
	logger  utils.Logger
	shuffle func(n int, swap func(i, j int))
}

func NewQuestionService(repo repositories.QuestionRepository, cacheService cache.CacheService, logger utils.Logger) QuestionService {
	return &questionService{
		repo:    repo,
		cache:   cacheService,
		logger:  logger,
		shuffle: rand.Shuffle,
	}
}

func (s *questionService) SelectQuestions(ctx context.Context, count int, subtopics []string, difficulties []models.DifficultyLevel) ([]string, error) {
	if count < 1 {
		return nil, NewValidationError("count", "must be at least 1", count)
	}

	filters := repositories.QuestionFilters{
		Subtopics:    subtopics,
		Difficulties: difficulties,
	}

	ids, err := s.repo.ListIDs(ctx, filters)
	if err != nil {
		s.logger.Error("failed to list question ids", "error", err)
		return nil, fmt.Errorf("%w: listing questions: %v", ErrInternalError, err)
	}

	// Verify the pool can satisfy the request before doing any random work,
	// so callers get the same error regardless of shuffle outcome.
	if len(ids) < count {
		return nil, NewInsufficientQuestionsError(len(ids), count)
	}

	// Shuffle the whole pool, then take a prefix. Taking a prefix of a full
	// shuffle keeps every count-sized subset equally likely.
	s.shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	return ids[:count], nil
}

func (s *questionService) GetQuestionsForExam(ctx context.Context, ids []string) ([]models.ExamQuestion, error) {
	questions, err := s.GetQuestionsWithAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ExamQuestion, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.ExamView())
	}
	return views, nil
}

func (s *questionService) GetQuestionsWithAnswers(ctx context.Context, ids []string) ([]*models.Question, error) {
	questions, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load questions", "count", len(ids), "error", err)
		return nil, fmt.Errorf("%w: loading questions: %v", ErrInternalError, err)
	}
	if len(questions) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d questions missing", ErrQuestionNotFound, len(ids)-len(questions), len(ids))
	}
	return questions, nil
}

func (s *questionService) GetSubtopics(ctx context.Context) ([]models.SubtopicInfo, error) {
	var cached []models.SubtopicInfo
	if err := s.cache.Get(ctx, subtopicsCacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("subtopics cache read failed", "error", err)
	}

	subtopics, err := s.repo.ListSubtopics(ctx)
	if err != nil {
		s.logger.Error("failed to list subtopics", "error", err)
		return nil, fmt.Errorf("%w: listing subtopics: %v", ErrInternalError, err)
	}

	if err := s.cache.Set(ctx, subtopicsCacheKey, subtopics, catalogCacheTTL); err != nil {
		s.logger.Warn("subtopics cache write failed", "error", err)
	}
	return subtopics, nil
}

func (s *questionService) CountQuestions(ctx context.Context, subtopics []string, difficulties []models.DifficultyLevel) (int64, error) {
	key := countCacheKey(subtopics, difficulties)

	var cached int64
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("question count cache read failed", "error", err)
	}

	count, err := s.repo.Count(ctx, repositories.QuestionFilters{
		Subtopics:    subtopics,
		Difficulties: difficulties,
	})
	if err != nil {
		s.logger.Error("failed to count questions", "error", err)
		return 0, fmt.Errorf("%w: counting questions: %v", ErrInternalError, err)
	}

	if err := s.cache.Set(ctx, key, count, catalogCacheTTL); err != nil {
		s.logger.Warn("question count cache write failed", "error", err)
	}
	return count, nil
}

func (s *questionService) RefreshCatalogCache(ctx context.Context) error {
	if err := s.cache.Delete(ctx, subtopicsCacheKey); err != nil {
		s.logger.Error("failed to drop subtopics cache", "error", err)
		return fmt.Errorf("%w: dropping subtopics cache: %v", ErrInternalError, err)
	}
	if err := s.cache.DeletePattern(ctx, countCachePattern); err != nil {
		s.logger.Error("failed to drop question count cache", "error", err)
		return fmt.Errorf("%w: dropping count cache: %v", ErrInternalError, err)
	}
	s.logger.Info("catalog cache refreshed")
	return nil
}

func countCacheKey(subtopics []string, difficulties []models.DifficultyLevel) string {
	st := append([]string(nil), subtopics...)
	sort.Strings(st)

	df := make([]string, 0, len(difficulties))
	for _, d := range difficulties {
		df = append(df, string(d))
	}
	sort.Strings(df)

	return fmt.Sprintf("questions:count:%s|%s", strings.Join(st, ","), strings.Join(df, ","))
}
