package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/repositories"
	"github.com/radcert-prep/exam-service/internal/utils"
)

type exportService struct {
	questions repositories.QuestionRepository
	sessions  repositories.SessionRepository
	logger    utils.Logger
}

func NewExportService(questions repositories.QuestionRepository, sessions repositories.SessionRepository, logger utils.Logger) ExportService {
	return &exportService{
		questions: questions,
		sessions:  sessions,
		logger:    logger,
	}
}

// ExportCompletedSessions renders every completed session with its raw and
// difficulty-weighted results as an xlsx workbook.
func (s *exportService) ExportCompletedSessions(ctx context.Context) ([]byte, error) {
	sessions, err := s.sessions.GetCompletedWithAnswers(ctx)
	if err != nil {
		s.logger.Error("failed to load completed sessions", "error", err)
		return nil, fmt.Errorf("%w: loading completed sessions: %v", ErrInternalError, err)
	}

	allIDs := uniqueQuestionIDs(sessions)
	var correct map[string]models.OptionLabel
	if len(allIDs) > 0 {
		questions, err := s.questions.GetByIDs(ctx, allIDs)
		if err != nil {
			s.logger.Error("failed to load questions for export", "error", err)
			return nil, fmt.Errorf("%w: loading questions: %v", ErrInternalError, err)
		}
		correct = make(map[string]models.OptionLabel, len(questions))
		for _, q := range questions {
			correct[q.ID] = q.CorrectAnswer
		}
	}

	stats := aggregateQuestionStats(sessions, correct, allIDs)

	scores := make(map[string]float64, len(sessions))
	for _, session := range sessions {
		if score, scored := relativeScore(session, stats, correct); scored {
			scores[session.ID] = score
		}
	}

	f := excelize.NewFile()
	sheetName := "Sessions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Session ID", "Started At", "Completed At", "Questions", "Score",
		"Percentage", "Time Taken (s)", "Relative Score", "Rank", "Percentile",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, session := range sessions {
		row := s.sessionToRow(session, scores)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("exported completed sessions", "count", len(sessions))
	return buf.Bytes(), nil
}

func (s *exportService) sessionToRow(session *models.ExamSession, scores map[string]float64) []interface{} {
	completedAt := ""
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.Format(time.RFC3339)
	}
	score := 0
	if session.Score != nil {
		score = *session.Score
	}
	percentage := 0
	if session.Percentage != nil {
		percentage = *session.Percentage
	}

	row := []interface{}{
		session.ID,
		session.StartedAt.Format(time.RFC3339),
		completedAt,
		session.TotalQuestions,
		score,
		percentage,
		session.TimeLimit - session.TimeRemaining,
	}

	if userScore, ok := scores[session.ID]; ok {
		ranking := rankAmong(userScore, scores)
		row = append(row, ranking.RelativeScore, ranking.Rank, ranking.Percentile)
	} else {
		row = append(row, "", "", "")
	}
	return row
}
