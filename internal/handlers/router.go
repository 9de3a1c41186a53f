package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/radcert-prep/exam-service/internal/services"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type HandlerManager struct {
	examHandler     *ExamHandler
	questionHandler *QuestionHandler
	statsHandler    *StatsHandler
	exportHandler   *ExportHandler
	logger          utils.Logger
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		examHandler:     NewExamHandler(serviceManager.Exam(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		statsHandler:    NewStatsHandler(serviceManager.Stats(), logger),
		exportHandler:   NewExportHandler(serviceManager.Export(), logger),
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		exam := v1.Group("/exam")
		{
			exam.POST("/start", hm.examHandler.StartExam)
			exam.GET("/:session_id", hm.examHandler.GetSession)
			exam.POST("/:session_id/answer", hm.examHandler.SubmitAnswer)
			exam.POST("/:session_id/flag", hm.examHandler.ToggleFlag)
			exam.PUT("/:session_id/time", hm.examHandler.UpdateTimeRemaining)
			exam.POST("/:session_id/complete", hm.examHandler.CompleteExam)
			exam.GET("/:session_id/results", hm.examHandler.GetResults)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("/subtopics", hm.questionHandler.GetSubtopics)
			questions.GET("/count", hm.questionHandler.CountQuestions)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/question/:question_id", hm.statsHandler.GetQuestionStats)
			stats.GET("/ranking/:session_id", hm.statsHandler.GetRanking)
		}

		export := v1.Group("/export", CasdoorAuthMiddleware(hm.logger))
		{
			export.GET("/results", hm.exportHandler.ExportResults)
		}

		admin := v1.Group("/admin", CasdoorAuthMiddleware(hm.logger))
		{
			admin.GET("/sessions", hm.examHandler.ListSessions)
			admin.POST("/sessions/:session_id/abandon", hm.examHandler.AbandonSession)
			admin.POST("/cache/refresh", hm.questionHandler.RefreshCache)
		}
	}
}
