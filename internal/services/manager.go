package services

import (
	"github.com/go-playground/validator/v10"

	"github.com/radcert-prep/exam-service/internal/cache"
	"github.com/radcert-prep/exam-service/internal/events"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type serviceManager struct {
	question QuestionService
	exam     ExamService
	stats    StatsService
	export   ExportService
}

// NewServiceManager wires every service against the shared repository,
// cache, publisher and validator.
func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.Publisher,
	validate *validator.Validate,
	logger utils.Logger,
) ServiceManager {
	question := NewQuestionService(repo.Question(), cacheService, logger)
	exam := NewExamService(repo.Session(), question, validate, publisher, logger)
	stats := NewStatsService(repo.Question(), repo.Session(), logger)
	export := NewExportService(repo.Question(), repo.Session(), logger)

	return &serviceManager{
		question: question,
		exam:     exam,
		stats:    stats,
		export:   export,
	}
}

func (m *serviceManager) Question() QuestionService { return m.question }
func (m *serviceManager) Exam() ExamService         { return m.exam }
func (m *serviceManager) Stats() StatsService       { return m.stats }
func (m *serviceManager) Export() ExportService     { return m.export }
