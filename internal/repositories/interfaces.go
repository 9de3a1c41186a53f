package repositories

import (
	"context"
	"errors"

	"github.com/radcert-prep/exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

// QuestionFilters narrows catalog queries. Empty slices mean no constraint.
type QuestionFilters struct {
	Subtopics    []string                 `json:"subtopics"`
	Difficulties []models.DifficultyLevel `json:"difficulties"`
}

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "completed_at", "score"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

// QuestionRepository provides read-only access to the question catalog.
type QuestionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Question, error)
	// GetByIDs returns questions in the exact order of ids; ids with no
	// matching question are silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error)
	ListIDs(ctx context.Context, filters QuestionFilters) ([]string, error)
	Count(ctx context.Context, filters QuestionFilters) (int64, error)
	ListSubtopics(ctx context.Context) ([]models.SubtopicInfo, error)
}

// SessionRepository persists exam sessions and their per-question answers.
type SessionRepository interface {
	Create(ctx context.Context, session *models.ExamSession) error
	// GetByID loads a session without its answer rows.
	GetByID(ctx context.Context, id string) (*models.ExamSession, error)
	// GetByIDWithAnswers loads a session including all answer rows.
	GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamSession, error)
	Update(ctx context.Context, session *models.ExamSession) error
	List(ctx context.Context, filters SessionFilters) ([]*models.ExamSession, int64, error)

	// UpsertAnswer writes one question's answer record. preserveTimeSpent
	// keeps the existing time_spent value on conflict instead of
	// overwriting it.
	UpsertAnswer(ctx context.Context, answer *models.SessionAnswer, preserveTimeSpent bool) error
	// UpsertFlag writes only the flagged bit, leaving selection and time
	// untouched for an existing row.
	UpsertFlag(ctx context.Context, sessionID, questionID string, flagged bool) error
	UpdateTimeRemaining(ctx context.Context, id string, timeRemaining int) error
	// Complete freezes the session: status, score, percentage, completion
	// time and final time remaining in one guarded update. The guard on
	// status = in_progress makes a second completion report not-found.
	Complete(ctx context.Context, session *models.ExamSession) error

	// GetCompletedWithAnswers loads every completed session including
	// answers, for corpus-wide statistics.
	GetCompletedWithAnswers(ctx context.Context) ([]*models.ExamSession, error)
}

// Repository aggregates all repositories behind one dependency.
type Repository interface {
	Question() QuestionRepository
	Session() SessionRepository
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether err represents a missing record.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
