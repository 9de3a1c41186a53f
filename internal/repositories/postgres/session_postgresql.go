package postgres

import (
	"context"
	"time"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.ExamSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id string) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).
		Preload("Answers").
		First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) Update(ctx context.Context, session *models.ExamSession) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	var sessions []*models.ExamSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ExamSession{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (s SessionPostgreSQL) UpsertAnswer(ctx context.Context, answer *models.SessionAnswer, preserveTimeSpent bool) error {
	assignments := []string{"selected", "updated_at"}
	if !preserveTimeSpent {
		assignments = append(assignments, "time_spent")
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(answer).Error
}

func (s SessionPostgreSQL) UpsertFlag(ctx context.Context, sessionID, questionID string, flagged bool) error {
	answer := &models.SessionAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		Flagged:    flagged,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"flagged", "updated_at"}),
	}).Create(answer).Error
}

func (s SessionPostgreSQL) UpdateTimeRemaining(ctx context.Context, id string, timeRemaining int) error {
	// Guarded like Complete: once a session is frozen its final
	// time_remaining must not change.
	result := s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Update("time_remaining", timeRemaining)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s SessionPostgreSQL) Complete(ctx context.Context, session *models.ExamSession) error {
	// Guard on status so that two racing completions cannot both freeze the
	// session; the loser observes zero affected rows.
	result := s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ? AND status = ?", session.ID, models.SessionInProgress).
		Updates(map[string]interface{}{
			"status":         models.SessionCompleted,
			"score":          session.Score,
			"percentage":     session.Percentage,
			"time_remaining": session.TimeRemaining,
			"completed_at":   session.CompletedAt,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s SessionPostgreSQL) GetCompletedWithAnswers(ctx context.Context) ([]*models.ExamSession, error) {
	var sessions []*models.ExamSession
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.SessionCompleted).
		Preload("Answers").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
