package services

import (
	"context"

	"github.com/radcert-prep/exam-service/internal/models"
)

// ===== REQUEST STRUCTS =====

type StartExamRequest struct {
	QuestionCount   int                      `json:"question_count" validate:"omitempty,min=1,max=120"`
	Subtopics       []string                 `json:"subtopics" validate:"omitempty,dive,min=1"`
	Difficulties    []models.DifficultyLevel `json:"difficulties" validate:"omitempty,dive,oneof=medium hard very_hard"`
	TimePerQuestion int                      `json:"time_per_question" validate:"omitempty,min=30,max=180"`
}

const (
	DefaultQuestionCount   = 30
	DefaultTimePerQuestion = 90 // seconds
)

// ApplyDefaults fills zero-valued fields with the product defaults.
func (r *StartExamRequest) ApplyDefaults() {
	if r.QuestionCount == 0 {
		r.QuestionCount = DefaultQuestionCount
	}
	if r.TimePerQuestion == 0 {
		r.TimePerQuestion = DefaultTimePerQuestion
	}
}

type SubmitAnswerRequest struct {
	QuestionID string              `json:"question_id" validate:"required"`
	Selected   *models.OptionLabel `json:"selected" validate:"omitempty,oneof=A B C D E"`
	TimeSpent  *int                `json:"time_spent" validate:"omitempty,min=0"`
}

type FlagRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Flagged    bool   `json:"flagged"`
}

type UpdateTimeRequest struct {
	TimeRemaining int `json:"time_remaining" validate:"min=0"`
}

type CompleteExamRequest struct {
	TimeRemaining *int `json:"time_remaining" validate:"omitempty,min=0"`
}

// ListSessionsRequest pages through stored sessions, for admin tooling.
type ListSessionsRequest struct {
	Status    string `form:"status" validate:"omitempty,oneof=in_progress completed abandoned"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" validate:"omitempty,min=0"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=started_at completed_at score created_at"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// ===== RESPONSE STRUCTS =====

// SessionResponse is the client-facing shape of one exam session.
type SessionResponse struct {
	ID               string                       `json:"id"`
	QuestionIDs      []string                     `json:"question_ids"`
	TotalQuestions   int                          `json:"total_questions"`
	TimeLimit        int                          `json:"time_limit"`
	TimeRemaining    int                          `json:"time_remaining"`
	Answers          map[string]models.AnswerData `json:"answers"`
	Status           models.SessionStatus         `json:"status"`
	SubtopicFilter   []string                     `json:"subtopic_filter"`
	DifficultyFilter []models.DifficultyLevel     `json:"difficulty_filter"`
	StartedAt        string                       `json:"started_at"`
	CompletedAt      *string                      `json:"completed_at"`
}

// SessionListResponse is one page of sessions plus the unpaged total.
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
	Total    int64              `json:"total"`
}

// SessionWithQuestions pairs a session with its candidate-facing questions,
// ordered as they should be displayed.
type SessionWithQuestions struct {
	Session   *SessionResponse      `json:"session"`
	Questions []models.ExamQuestion `json:"questions"`
}

type OptionSet struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
	E string `json:"E"`
}

// QuestionResult is the per-question line of a results payload.
type QuestionResult struct {
	ID             string                 `json:"id"`
	Stem           string                 `json:"stem"`
	Options        OptionSet              `json:"options"`
	CorrectAnswer  models.OptionLabel     `json:"correct_answer"`
	SelectedAnswer *models.OptionLabel    `json:"selected_answer"`
	IsCorrect      bool                   `json:"is_correct"`
	Flagged        bool                   `json:"flagged"`
	Explanation    string                 `json:"explanation"`
	LearningPoint  *string                `json:"learning_point"`
	Subtopic       string                 `json:"subtopic"`
	Difficulty     models.DifficultyLevel `json:"difficulty"`
}

type SubtopicPerformance struct {
	Subtopic   string `json:"subtopic"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

type DifficultyPerformance struct {
	Difficulty models.DifficultyLevel `json:"difficulty"`
	Correct    int                    `json:"correct"`
	Total      int                    `json:"total"`
	Percentage int                    `json:"percentage"`
}

// ExamResults is the full results payload of a completed session.
type ExamResults struct {
	SessionID             string                  `json:"session_id"`
	Score                 int                     `json:"score"`
	TotalQuestions        int                     `json:"total_questions"`
	Percentage            int                     `json:"percentage"`
	TimeTaken             int                     `json:"time_taken"`
	TimeLimit             int                     `json:"time_limit"`
	Questions             []QuestionResult        `json:"questions"`
	SubtopicPerformance   []SubtopicPerformance   `json:"subtopic_performance"`
	DifficultyPerformance []DifficultyPerformance `json:"difficulty_performance"`
}

// QuestionStatsResponse is the public shape of one question's statistics.
// DifficultyRate inverts the success rate so that higher means harder.
type QuestionStatsResponse struct {
	QuestionID     string  `json:"question_id"`
	TotalAttempts  int     `json:"total_attempts"`
	CorrectCount   int     `json:"correct_count"`
	DifficultyRate float64 `json:"difficulty_rate"`
}

// ===== SERVICE INTERFACES =====

// QuestionService is the read-only catalog accessor plus the random
// question selector.
type QuestionService interface {
	// SelectQuestions picks a uniformly random subset of count question ids
	// satisfying the filters. Fails with InsufficientQuestionsError before
	// any randomized work when the catalog cannot satisfy count.
	SelectQuestions(ctx context.Context, count int, subtopics []string, difficulties []models.DifficultyLevel) ([]string, error)
	// GetQuestionsForExam returns candidate-facing views in id order.
	GetQuestionsForExam(ctx context.Context, ids []string) ([]models.ExamQuestion, error)
	// GetQuestionsWithAnswers returns full records in id order, for scoring.
	GetQuestionsWithAnswers(ctx context.Context, ids []string) ([]*models.Question, error)
	GetSubtopics(ctx context.Context) ([]models.SubtopicInfo, error)
	CountQuestions(ctx context.Context, subtopics []string, difficulties []models.DifficultyLevel) (int64, error)
	// RefreshCatalogCache drops the cached subtopic list and filter counts
	// so the next reads repopulate from the database.
	RefreshCatalogCache(ctx context.Context) error
}

// ExamService owns the session lifecycle state machine.
type ExamService interface {
	Start(ctx context.Context, req *StartExamRequest) (*SessionWithQuestions, error)
	GetSession(ctx context.Context, sessionID string) (*SessionWithQuestions, error)
	SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest) (*SessionResponse, error)
	ToggleFlag(ctx context.Context, sessionID string, req *FlagRequest) (*SessionResponse, error)
	UpdateTimeRemaining(ctx context.Context, sessionID string, req *UpdateTimeRequest) error
	Complete(ctx context.Context, sessionID string, req *CompleteExamRequest) (*ExamResults, error)
	GetResults(ctx context.Context, sessionID string) (*ExamResults, error)

	// ListSessions pages through stored sessions, newest first by default.
	ListSessions(ctx context.Context, req *ListSessionsRequest) (*SessionListResponse, error)
	// Abandon moves an in-progress session to its terminal abandoned state.
	// Abandoned sessions never enter statistics or rankings.
	Abandon(ctx context.Context, sessionID string) (*SessionResponse, error)
}

// StatsService aggregates question statistics over the corpus of completed
// sessions and ranks sessions by difficulty-weighted relative score.
type StatsService interface {
	QuestionStats(ctx context.Context, questionID string) (*models.QuestionStats, error)
	QuestionStatsBatch(ctx context.Context, questionIDs []string) (map[string]*models.QuestionStats, error)
	RelativeScore(ctx context.Context, sessionID string) (float64, error)
	Ranking(ctx context.Context, sessionID string) (*models.RankingResult, error)
}

// ExportService renders completed-session results for offline analysis.
type ExportService interface {
	ExportCompletedSessions(ctx context.Context) ([]byte, error)
}

// ServiceManager bundles all services for handler wiring.
type ServiceManager interface {
	Question() QuestionService
	Exam() ExamService
	Stats() StatsService
	Export() ExportService
}
