package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type statsService struct {
	questions repositories.QuestionRepository
	sessions  repositories.SessionRepository
	logger    utils.Logger
}

func NewStatsService(questions repositories.QuestionRepository, sessions repositories.SessionRepository, logger utils.Logger) StatsService {
	return &statsService{
		questions: questions,
		sessions:  sessions,
		logger:    logger,
	}
}

func (s *statsService) QuestionStats(ctx context.Context, questionID string) (*models.QuestionStats, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		s.logger.Error("failed to load question", "question_id", questionID, "error", err)
		return nil, fmt.Errorf("%w: loading question: %v", ErrInternalError, err)
	}

	stats, err := s.QuestionStatsBatch(ctx, []string{questionID})
	if err != nil {
		return nil, err
	}
	return stats[questionID], nil
}

// QuestionStatsBatch aggregates attempt counts over every completed session.
// Each requested id gets an entry; ids nobody has attempted carry the
// neutral success rate.
func (s *statsService) QuestionStatsBatch(ctx context.Context, questionIDs []string) (map[string]*models.QuestionStats, error) {
	sessions, err := s.sessions.GetCompletedWithAnswers(ctx)
	if err != nil {
		s.logger.Error("failed to load completed sessions", "error", err)
		return nil, fmt.Errorf("%w: loading completed sessions: %v", ErrInternalError, err)
	}

	correct, err := s.correctAnswers(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	return aggregateQuestionStats(sessions, correct, questionIDs), nil
}

func (s *statsService) RelativeScore(ctx context.Context, sessionID string) (float64, error) {
	session, err := s.requireCompletedSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	stats, err := s.QuestionStatsBatch(ctx, session.QuestionIDs)
	if err != nil {
		return 0, err
	}

	correct, err := s.correctAnswers(ctx, session.QuestionIDs)
	if err != nil {
		return 0, err
	}

	score, _ := relativeScore(session, stats, correct)
	return score, nil
}

func (s *statsService) Ranking(ctx context.Context, sessionID string) (*models.RankingResult, error) {
	if _, err := s.requireCompletedSession(ctx, sessionID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.GetCompletedWithAnswers(ctx)
	if err != nil {
		s.logger.Error("failed to load completed sessions", "error", err)
		return nil, fmt.Errorf("%w: loading completed sessions: %v", ErrInternalError, err)
	}

	allIDs := uniqueQuestionIDs(sessions)
	correct, err := s.correctAnswers(ctx, allIDs)
	if err != nil {
		return nil, err
	}
	stats := aggregateQuestionStats(sessions, correct, allIDs)

	scores := make(map[string]float64, len(sessions))
	for _, session := range sessions {
		if score, scored := relativeScore(session, stats, correct); scored {
			scores[session.ID] = score
		}
	}

	userScore, ok := scores[sessionID]
	if !ok {
		return nil, ErrRankingNotAvailable
	}

	return rankAmong(userScore, scores), nil
}

// ===== HELPERS =====

func (s *statsService) requireCompletedSession(ctx context.Context, sessionID string) (*models.ExamSession, error) {
	session, err := s.sessions.GetByIDWithAnswers(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: loading session: %v", ErrInternalError, err)
	}
	if session.Status != models.SessionCompleted {
		return nil, ErrRankingNotAvailable
	}
	return session, nil
}

func (s *statsService) correctAnswers(ctx context.Context, questionIDs []string) (map[string]models.OptionLabel, error) {
	if len(questionIDs) == 0 {
		return map[string]models.OptionLabel{}, nil
	}
	questions, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		s.logger.Error("failed to load questions", "error", err)
		return nil, fmt.Errorf("%w: loading questions: %v", ErrInternalError, err)
	}
	correct := make(map[string]models.OptionLabel, len(questions))
	for _, q := range questions {
		correct[q.ID] = q.CorrectAnswer
	}
	return correct, nil
}

// aggregateQuestionStats counts one attempt per completed session that both
// included the question and recorded a non-nil selection. Flagging alone is
// not an attempt.
func aggregateQuestionStats(sessions []*models.ExamSession, correct map[string]models.OptionLabel, questionIDs []string) map[string]*models.QuestionStats {
	wanted := make(map[string]bool, len(questionIDs))
	result := make(map[string]*models.QuestionStats, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = true
		result[id] = &models.QuestionStats{QuestionID: id}
	}

	for _, session := range sessions {
		answers := session.AnswerMap()
		for _, qID := range session.QuestionIDs {
			if !wanted[qID] {
				continue
			}
			answer, ok := answers[qID]
			if !ok || answer.Selected == nil {
				continue
			}
			stats := result[qID]
			stats.TotalAttempts++
			if ca, known := correct[qID]; known && *answer.Selected == ca {
				stats.CorrectCount++
			}
		}
	}

	for _, stats := range result {
		if stats.TotalAttempts > 0 {
			stats.SuccessRate = float64(stats.CorrectCount) / float64(stats.TotalAttempts)
		} else {
			stats.SuccessRate = models.NeutralSuccessRate
		}
	}
	return result
}

// relativeScore averages per-question contributions: a correct answer earns
// 1-successRate, a wrong or missing answer costs successRate. The boolean is
// false when no question had a stats entry.
func relativeScore(session *models.ExamSession, stats map[string]*models.QuestionStats, correct map[string]models.OptionLabel) (float64, bool) {
	answers := session.AnswerMap()

	total := 0.0
	scored := 0
	for _, qID := range session.QuestionIDs {
		st, ok := stats[qID]
		if !ok {
			continue
		}

		answer, has := answers[qID]
		switch {
		case !has || answer.Selected == nil:
			total -= st.SuccessRate
		case *answer.Selected == correct[qID]:
			total += 1 - st.SuccessRate
		default:
			total -= st.SuccessRate
		}
		scored++
	}

	if scored == 0 {
		return 0, false
	}
	return total / float64(scored), true
}

// rankAmong places userScore within all scores. Rank uses competition
// numbering, so tied scores share the best position. Percentile counts only
// strictly lower scores.
func rankAmong(userScore float64, scores map[string]float64) *models.RankingResult {
	values := make([]float64, 0, len(scores))
	for _, v := range scores {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	total := len(values)
	below := 0
	rank := 0
	for i, v := range values {
		if v < userScore {
			below++
		}
		if rank == 0 && v == userScore {
			rank = i + 1
		}
	}

	return &models.RankingResult{
		RelativeScore:   roundHalfUp3(userScore),
		Percentile:      int(math.Round(float64(below) / float64(total) * 100)),
		Rank:            rank,
		TotalCandidates: total,
	}
}

// roundHalfUp3 rounds to three decimals with halves toward positive
// infinity, so -0.0625 renders as -0.062 rather than -0.063.
func roundHalfUp3(x float64) float64 {
	return math.Floor(x*1000+0.5) / 1000
}

func uniqueQuestionIDs(sessions []*models.ExamSession) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, session := range sessions {
		for _, id := range session.QuestionIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
