package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/radcert-prep/exam-service/internal/errors"
	"github.com/radcert-prep/exam-service/internal/events"
	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type examService struct {
	sessions  repositories.SessionRepository
	questions QuestionService
	validator *validator.Validate
	publisher events.Publisher
	logger    utils.Logger
}

func NewExamService(
	sessions repositories.SessionRepository,
	questions QuestionService,
	validate *validator.Validate,
	publisher events.Publisher,
	logger utils.Logger,
) ExamService {
	return &examService{
		sessions:  sessions,
		questions: questions,
		validator: validate,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *examService) Start(ctx context.Context, req *StartExamRequest) (*SessionWithQuestions, error) {
	req.ApplyDefaults()
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	ids, err := s.questions.SelectQuestions(ctx, req.QuestionCount, req.Subtopics, req.Difficulties)
	if err != nil {
		return nil, err
	}

	timeLimit := req.QuestionCount * req.TimePerQuestion
	session := &models.ExamSession{
		ID:               uuid.New().String(),
		QuestionIDs:      ids,
		TotalQuestions:   req.QuestionCount,
		TimeLimit:        timeLimit,
		TimeRemaining:    timeLimit,
		Status:           models.SessionInProgress,
		SubtopicFilter:   req.Subtopics,
		DifficultyFilter: req.Difficulties,
		StartedAt:        time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to create exam session", "error", err)
		return nil, fmt.Errorf("%w: creating session: %v", ErrInternalError, err)
	}

	views, err := s.questions.GetQuestionsForExam(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishSessionStarted(ctx, session); err != nil {
		s.logger.Warn("session started event not published", "session_id", session.ID, "error", err)
	}
	s.logger.Info("exam session started",
		"session_id", session.ID,
		"questions", session.TotalQuestions,
		"time_limit", session.TimeLimit)

	return &SessionWithQuestions{
		Session:   toSessionResponse(session),
		Questions: views,
	}, nil
}

func (s *examService) GetSession(ctx context.Context, sessionID string) (*SessionWithQuestions, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views, err := s.questions.GetQuestionsForExam(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}

	return &SessionWithQuestions{
		Session:   toSessionResponse(session),
		Questions: views,
	}, nil
}

func (s *examService) SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest) (*SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	session, err := s.requireActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasQuestion(req.QuestionID) {
		return nil, NewValidationError("question_id", "question is not part of this session", req.QuestionID)
	}

	answer := &models.SessionAnswer{
		SessionID:  sessionID,
		QuestionID: req.QuestionID,
		Selected:   req.Selected,
	}
	if req.TimeSpent != nil {
		answer.TimeSpent = *req.TimeSpent
	}

	// When the client omits time spent, the existing per-question value is
	// kept so repeated answer changes do not zero the timing data.
	if err := s.sessions.UpsertAnswer(ctx, answer, req.TimeSpent == nil); err != nil {
		s.logger.Error("failed to record answer",
			"session_id", sessionID,
			"question_id", req.QuestionID,
			"error", err)
		return nil, fmt.Errorf("%w: recording answer: %v", ErrInternalError, err)
	}

	return s.reloadSessionResponse(ctx, sessionID)
}

func (s *examService) ToggleFlag(ctx context.Context, sessionID string, req *FlagRequest) (*SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	session, err := s.requireActiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasQuestion(req.QuestionID) {
		return nil, NewValidationError("question_id", "question is not part of this session", req.QuestionID)
	}

	if err := s.sessions.UpsertFlag(ctx, sessionID, req.QuestionID, req.Flagged); err != nil {
		s.logger.Error("failed to update flag",
			"session_id", sessionID,
			"question_id", req.QuestionID,
			"error", err)
		return nil, fmt.Errorf("%w: updating flag: %v", ErrInternalError, err)
	}

	return s.reloadSessionResponse(ctx, sessionID)
}

func (s *examService) UpdateTimeRemaining(ctx context.Context, sessionID string, req *UpdateTimeRequest) error {
	if req.TimeRemaining < 0 {
		return NewValidationError("time_remaining", "cannot be negative", req.TimeRemaining)
	}

	if _, err := s.requireActiveSession(ctx, sessionID); err != nil {
		return err
	}

	if err := s.sessions.UpdateTimeRemaining(ctx, sessionID, req.TimeRemaining); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotActive
		}
		s.logger.Error("failed to update time remaining", "session_id", sessionID, "error", err)
		return fmt.Errorf("%w: updating time: %v", ErrInternalError, err)
	}
	return nil
}

func (s *examService) Complete(ctx context.Context, sessionID string, req *CompleteExamRequest) (*ExamResults, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	finalTimeRemaining := 0
	if req.TimeRemaining != nil {
		finalTimeRemaining = *req.TimeRemaining
	}
	session.TimeRemaining = finalTimeRemaining

	questions, err := s.questions.GetQuestionsWithAnswers(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}

	results := buildExamResults(session, questions, session.AnswerMap())

	now := time.Now().UTC()
	session.Status = models.SessionCompleted
	session.Score = &results.Score
	session.Percentage = &results.Percentage
	session.CompletedAt = &now

	// The guarded update only succeeds while the row is still in progress,
	// so concurrent completions resolve to exactly one winner.
	if err := s.sessions.Complete(ctx, session); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotActive
		}
		s.logger.Error("failed to complete session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: completing session: %v", ErrInternalError, err)
	}

	if err := s.publisher.PublishSessionCompleted(ctx, session, results.Score, results.Percentage); err != nil {
		s.logger.Warn("session completed event not published", "session_id", sessionID, "error", err)
	}
	s.logger.Info("exam session completed",
		"session_id", sessionID,
		"score", results.Score,
		"percentage", results.Percentage)

	return results, nil
}

func (s *examService) GetResults(ctx context.Context, sessionID string) (*ExamResults, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted {
		return nil, ErrResultsNotAvailable
	}

	questions, err := s.questions.GetQuestionsWithAnswers(ctx, session.QuestionIDs)
	if err != nil {
		return nil, err
	}

	return buildExamResults(session, questions, session.AnswerMap()), nil
}

func (s *examService) ListSessions(ctx context.Context, req *ListSessionsRequest) (*SessionListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	filters := repositories.SessionFilters{
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != "" {
		status := models.SessionStatus(req.Status)
		filters.Status = &status
	}

	sessions, total, err := s.sessions.List(ctx, filters)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		return nil, fmt.Errorf("%w: listing sessions: %v", ErrInternalError, err)
	}

	responses := make([]*SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session))
	}
	return &SessionListResponse{Sessions: responses, Total: total}, nil
}

func (s *examService) Abandon(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: loading session: %v", ErrInternalError, err)
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	now := time.Now().UTC()
	session.Status = models.SessionAbandoned
	session.CompletedAt = &now

	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("failed to abandon session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: abandoning session: %v", ErrInternalError, err)
	}
	s.logger.Info("exam session abandoned", "session_id", sessionID)

	return toSessionResponse(session), nil
}

// ===== HELPERS =====

func (s *examService) loadSession(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	session, err := s.sessions.GetByIDWithAnswers(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: loading session: %v", ErrInternalError, err)
	}
	return session, nil
}

func (s *examService) requireActiveSession(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}
	return session, nil
}

func (s *examService) reloadSessionResponse(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func toSessionResponse(session *models.ExamSession) *SessionResponse {
	var completedAt *string
	if session.CompletedAt != nil {
		t := session.CompletedAt.Format(time.RFC3339)
		completedAt = &t
	}

	return &SessionResponse{
		ID:               session.ID,
		QuestionIDs:      session.QuestionIDs,
		TotalQuestions:   session.TotalQuestions,
		TimeLimit:        session.TimeLimit,
		TimeRemaining:    session.TimeRemaining,
		Answers:          session.AnswerMap(),
		Status:           session.Status,
		SubtopicFilter:   session.SubtopicFilter,
		DifficultyFilter: session.DifficultyFilter,
		StartedAt:        session.StartedAt.Format(time.RFC3339),
		CompletedAt:      completedAt,
	}
}
