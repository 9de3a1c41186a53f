package postgres

import (
	"context"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []*models.Question
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}

	// Restore the caller's order; the IN query returns rows in storage order.
	byID := make(map[string]*models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	ordered := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered, nil
}

func (q QuestionPostgreSQL) ListIDs(ctx context.Context, filters repositories.QuestionFilters) ([]string, error) {
	var ids []string
	query := applyQuestionFilters(q.db.WithContext(ctx).Model(&models.Question{}), filters)
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (q QuestionPostgreSQL) Count(ctx context.Context, filters repositories.QuestionFilters) (int64, error) {
	var count int64
	query := applyQuestionFilters(q.db.WithContext(ctx).Model(&models.Question{}), filters)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (q QuestionPostgreSQL) ListSubtopics(ctx context.Context) ([]models.SubtopicInfo, error) {
	var subtopics []models.SubtopicInfo
	err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("subtopic AS name, COUNT(*) AS question_count").
		Group("subtopic").
		Order("subtopic ASC").
		Scan(&subtopics).Error
	if err != nil {
		return nil, err
	}
	return subtopics, nil
}

// applyQuestionFilters applies subtopic/difficulty IN constraints; empty
// slices leave the query unconstrained.
func applyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if len(filters.Subtopics) > 0 {
		query = query.Where("subtopic IN ?", filters.Subtopics)
	}
	if len(filters.Difficulties) > 0 {
		query = query.Where("difficulty IN ?", filters.Difficulties)
	}
	return query
}
