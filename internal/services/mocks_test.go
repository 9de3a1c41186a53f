package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/radcert-prep/exam-service/internal/cache"
	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
)

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) ListIDs(ctx context.Context, filters repositories.QuestionFilters) ([]string, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuestionRepository) Count(ctx context.Context, filters repositories.QuestionFilters) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) ListSubtopics(ctx context.Context) ([]models.SubtopicInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubtopicInfo), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.ExamSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*models.ExamSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSession), args.Error(1)
}

func (m *MockSessionRepository) GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *models.ExamSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.ExamSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) UpsertAnswer(ctx context.Context, answer *models.SessionAnswer, preserveTimeSpent bool) error {
	args := m.Called(ctx, answer, preserveTimeSpent)
	return args.Error(0)
}

func (m *MockSessionRepository) UpsertFlag(ctx context.Context, sessionID, questionID string, flagged bool) error {
	args := m.Called(ctx, sessionID, questionID, flagged)
	return args.Error(0)
}

func (m *MockSessionRepository) UpdateTimeRemaining(ctx context.Context, id string, timeRemaining int) error {
	args := m.Called(ctx, id, timeRemaining)
	return args.Error(0)
}

func (m *MockSessionRepository) Complete(ctx context.Context, session *models.ExamSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetCompletedWithAnswers(ctx context.Context) ([]*models.ExamSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExamSession), args.Error(1)
}

// MockCacheService is an in-memory CacheService for tests. Get always
// misses so tests exercise the repository path.
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// passthroughCache always misses and accepts writes, for tests that do not
// care about caching.
func passthroughCache() *MockCacheService {
	c := &MockCacheService{}
	c.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(cache.ErrCacheMiss).Maybe()
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return c
}

// fakeSessionStore keeps sessions and per-question answer rows in memory
// with the same row-level merge rules as the database upserts, so tests can
// interleave concurrent writers.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.ExamSession
	answers  map[string]map[string]*models.SessionAnswer
}

func newFakeSessionStore(sessions ...*models.ExamSession) *fakeSessionStore {
	store := &fakeSessionStore{
		sessions: make(map[string]*models.ExamSession),
		answers:  make(map[string]map[string]*models.SessionAnswer),
	}
	for _, s := range sessions {
		store.sessions[s.ID] = s
		store.answers[s.ID] = make(map[string]*models.SessionAnswer)
	}
	return store
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	f.answers[session.ID] = make(map[string]*models.SessionAnswer)
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (*models.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	copied.Answers = nil
	for _, row := range f.answers[id] {
		copied.Answers = append(copied.Answers, *row)
	}
	return &copied, nil
}

func (f *fakeSessionStore) Update(ctx context.Context, session *models.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sessions []*models.ExamSession
	for _, s := range f.sessions {
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		copied := *s
		sessions = append(sessions, &copied)
	}
	return sessions, int64(len(sessions)), nil
}

func (f *fakeSessionStore) UpsertAnswer(ctx context.Context, answer *models.SessionAnswer, preserveTimeSpent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.answers[answer.SessionID]
	existing, ok := rows[answer.QuestionID]
	if !ok {
		row := *answer
		rows[answer.QuestionID] = &row
		return nil
	}
	// The conflict path assigns only the selection and, unless preserved,
	// the recorded time. The flag column stays untouched.
	existing.Selected = answer.Selected
	if !preserveTimeSpent {
		existing.TimeSpent = answer.TimeSpent
	}
	return nil
}

func (f *fakeSessionStore) UpsertFlag(ctx context.Context, sessionID, questionID string, flagged bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.answers[sessionID]
	if existing, ok := rows[questionID]; ok {
		existing.Flagged = flagged
		return nil
	}
	rows[questionID] = &models.SessionAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		Flagged:    flagged,
	}
	return nil
}

func (f *fakeSessionStore) UpdateTimeRemaining(ctx context.Context, id string, timeRemaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.Status != models.SessionInProgress {
		return gorm.ErrRecordNotFound
	}
	session.TimeRemaining = timeRemaining
	return nil
}

func (f *fakeSessionStore) Complete(ctx context.Context, session *models.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[session.ID]
	if !ok || stored.Status != models.SessionInProgress {
		return gorm.ErrRecordNotFound
	}
	stored.Status = models.SessionCompleted
	stored.Score = session.Score
	stored.Percentage = session.Percentage
	stored.TimeRemaining = session.TimeRemaining
	stored.CompletedAt = session.CompletedAt
	return nil
}

func (f *fakeSessionStore) GetCompletedWithAnswers(ctx context.Context) ([]*models.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sessions []*models.ExamSession
	for id, s := range f.sessions {
		if s.Status != models.SessionCompleted {
			continue
		}
		copied := *s
		copied.Answers = nil
		for _, row := range f.answers[id] {
			copied.Answers = append(copied.Answers, *row)
		}
		sessions = append(sessions, &copied)
	}
	return sessions, nil
}

// ===== TEST DATA HELPERS =====

func optionPtr(o models.OptionLabel) *models.OptionLabel {
	return &o
}

func intPtr(i int) *int {
	return &i
}

func testQuestion(id, subtopic string, difficulty models.DifficultyLevel, correct models.OptionLabel) *models.Question {
	return &models.Question{
		ID:            id,
		Stem:          "Stem for " + id,
		OptionA:       "Option A",
		OptionB:       "Option B",
		OptionC:       "Option C",
		OptionD:       "Option D",
		OptionE:       "Option E",
		CorrectAnswer: correct,
		Explanation:   "Explanation for " + id,
		Subtopic:      subtopic,
		Difficulty:    difficulty,
	}
}

func testCompletedSession(id string, questionIDs []string, answers map[string]*models.OptionLabel) *models.ExamSession {
	session := &models.ExamSession{
		ID:             id,
		QuestionIDs:    questionIDs,
		TotalQuestions: len(questionIDs),
		TimeLimit:      len(questionIDs) * 90,
		Status:         models.SessionCompleted,
		StartedAt:      time.Now().Add(-time.Hour),
	}
	for qID, selected := range answers {
		session.Answers = append(session.Answers, models.SessionAnswer{
			SessionID:  id,
			QuestionID: qID,
			Selected:   selected,
		})
	}
	return session
}
