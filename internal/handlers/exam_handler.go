package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radcert-prep/exam-service/internal/services"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

func NewExamHandler(examService services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// StartExam creates a new exam session
// @Summary Start exam
// @Description Selects a random question set and opens a new session
// @Tags exam
// @Accept json
// @Produce json
// @Param request body services.StartExamRequest true "Exam configuration"
// @Success 201 {object} services.SessionWithQuestions
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exam/start [post]
func (h *ExamHandler) StartExam(c *gin.Context) {
	h.LogRequest(c, "Starting exam session")

	var req services.StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.examService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession retrieves an exam session with its questions
// @Summary Get session
// @Tags exam
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionWithQuestions
// @Failure 404 {object} ErrorResponse
// @Router /exam/{session_id} [get]
func (h *ExamHandler) GetSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	session, err := h.examService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SubmitAnswer records or replaces the answer for one question
// @Summary Submit answer
// @Tags exam
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/{session_id}/answer [post]
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.examService.SubmitAnswer(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ToggleFlag marks or unmarks a question for review
// @Summary Toggle flag
// @Tags exam
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body services.FlagRequest true "Flag data"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/{session_id}/flag [post]
func (h *ExamHandler) ToggleFlag(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	var req services.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.examService.ToggleFlag(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// UpdateTimeRemaining persists the countdown for session recovery
// @Summary Update time remaining
// @Tags exam
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body services.UpdateTimeRequest true "Time data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/{session_id}/time [put]
func (h *ExamHandler) UpdateTimeRemaining(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	var req services.UpdateTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.examService.UpdateTimeRemaining(c.Request.Context(), sessionID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Time updated"})
}

// CompleteExam finalizes the session and returns scored results
// @Summary Complete exam
// @Tags exam
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body services.CompleteExamRequest true "Completion data"
// @Success 200 {object} services.ExamResults
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/{session_id}/complete [post]
func (h *ExamHandler) CompleteExam(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	var req services.CompleteExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	results, err := h.examService.Complete(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListSessions pages through stored sessions
// @Summary List sessions
// @Tags admin
// @Produce json
// @Param status query string false "Status filter" Enums(in_progress, completed, abandoned)
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Param sort_by query string false "Sort column" Enums(started_at, completed_at, score, created_at)
// @Param sort_order query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} services.SessionListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/sessions [get]
func (h *ExamHandler) ListSessions(c *gin.Context) {
	var req services.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	sessions, err := h.examService.ListSessions(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// AbandonSession marks an in-progress session as abandoned
// @Summary Abandon session
// @Tags admin
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/sessions/{session_id}/abandon [post]
func (h *ExamHandler) AbandonSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	session, err := h.examService.Abandon(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetResults returns the scored results of a completed session
// @Summary Get results
// @Tags exam
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.ExamResults
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/{session_id}/results [get]
func (h *ExamHandler) GetResults(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	results, err := h.examService.GetResults(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
