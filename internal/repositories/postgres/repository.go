package postgres

import (
	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type postgresRepository struct {
	question repositories.QuestionRepository
	session  repositories.SessionRepository
}

// NewRepository wires the gorm-backed repositories behind the aggregate
// interface.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &postgresRepository{
		question: NewQuestionPostgreSQL(db),
		session:  NewSessionPostgreSQL(db),
	}
}

func (r *postgresRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *postgresRepository) Session() repositories.SessionRepository {
	return r.session
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Question{},
		&models.ExamSession{},
		&models.SessionAnswer{},
	)
}

// applyPaginationAndSort applies shared list semantics: whitelist-checked
// sort column, descending by default, bounded pagination.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowed := map[string]bool{
		"started_at":   true,
		"completed_at": true,
		"score":        true,
		"created_at":   true,
	}
	if !allowed[sortBy] {
		sortBy = "started_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
