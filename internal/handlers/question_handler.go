package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radcert-prep/exam-service/internal/services"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// GetSubtopics lists all subtopics with their question counts
// @Summary List subtopics
// @Tags questions
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.SubtopicInfo}
// @Failure 500 {object} ErrorResponse
// @Router /questions/subtopics [get]
func (h *QuestionHandler) GetSubtopics(c *gin.Context) {
	subtopics, err := h.questionService.GetSubtopics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Subtopics retrieved",
		Data:    subtopics,
	})
}

// CountQuestions returns how many questions match the given filters
// @Summary Count questions
// @Tags questions
// @Produce json
// @Param subtopics query string false "Comma-separated subtopic filter"
// @Param difficulties query string false "Comma-separated difficulty filter"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /questions/count [get]
func (h *QuestionHandler) CountQuestions(c *gin.Context) {
	subtopics := ParseCSVQuery(c, "subtopics")
	difficulties, ok := ParseDifficultyQuery(c, "difficulties")
	if !ok {
		return
	}

	count, err := h.questionService.CountQuestions(c.Request.Context(), subtopics, difficulties)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Questions counted",
		Data:    gin.H{"count": count},
	})
}

// RefreshCache drops the cached catalog reads after question bank changes
// @Summary Refresh catalog cache
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/cache/refresh [post]
func (h *QuestionHandler) RefreshCache(c *gin.Context) {
	h.LogRequest(c, "Refreshing catalog cache")

	if err := h.questionService.RefreshCatalogCache(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Catalog cache refreshed"})
}
