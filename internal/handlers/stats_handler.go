package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radcert-prep/exam-service/internal/services"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type StatsHandler struct {
	BaseHandler
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsService: statsService,
	}
}

// GetQuestionStats returns attempt statistics for one question
// @Summary Question statistics
// @Tags stats
// @Produce json
// @Param question_id path string true "Question ID"
// @Success 200 {object} services.QuestionStatsResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats/question/{question_id} [get]
func (h *StatsHandler) GetQuestionStats(c *gin.Context) {
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	stats, err := h.statsService.QuestionStats(c.Request.Context(), questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.QuestionStatsResponse{
		QuestionID:     stats.QuestionID,
		TotalAttempts:  stats.TotalAttempts,
		CorrectCount:   stats.CorrectCount,
		DifficultyRate: math.Round((1-stats.SuccessRate)*100) / 100,
	})
}

// GetRanking returns the difficulty-weighted ranking for a completed session
// @Summary Session ranking
// @Tags stats
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} models.RankingResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /stats/ranking/{session_id} [get]
func (h *StatsHandler) GetRanking(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	ranking, err := h.statsService.Ranking(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking)
}
