package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/radcert-prep/exam-service/internal/models"
	"github.com/radcert-prep/exam-service/internal/utils"
)

func newStatsServiceForTest(questions *MockQuestionRepository, sessions *MockSessionRepository) StatsService {
	return NewStatsService(questions, sessions, utils.NewDevelopmentLogger())
}

func TestAggregateQuestionStats(t *testing.T) {
	correct := map[string]models.OptionLabel{
		"q1": models.OptionA,
		"q2": models.OptionB,
	}
	sessions := []*models.ExamSession{
		// q1 correct, q2 wrong
		testCompletedSession("s1", []string{"q1", "q2"}, map[string]*models.OptionLabel{
			"q1": optionPtr(models.OptionA),
			"q2": optionPtr(models.OptionC),
		}),
		// q1 wrong, q2 left unanswered (nil selection is not an attempt)
		testCompletedSession("s2", []string{"q1", "q2"}, map[string]*models.OptionLabel{
			"q1": optionPtr(models.OptionB),
			"q2": nil,
		}),
		// session does not include q1/q2 at all
		testCompletedSession("s3", []string{"q9"}, map[string]*models.OptionLabel{
			"q9": optionPtr(models.OptionA),
		}),
	}

	stats := aggregateQuestionStats(sessions, correct, []string{"q1", "q2", "q3"})

	assert.Equal(t, 2, stats["q1"].TotalAttempts)
	assert.Equal(t, 1, stats["q1"].CorrectCount)
	assert.InDelta(t, 0.5, stats["q1"].SuccessRate, 1e-9)

	assert.Equal(t, 1, stats["q2"].TotalAttempts)
	assert.Equal(t, 0, stats["q2"].CorrectCount)
	assert.InDelta(t, 0.0, stats["q2"].SuccessRate, 1e-9)

	// Never attempted: neutral prior.
	assert.Equal(t, 0, stats["q3"].TotalAttempts)
	assert.InDelta(t, models.NeutralSuccessRate, stats["q3"].SuccessRate, 1e-9)
}

func TestRelativeScore_Contributions(t *testing.T) {
	correct := map[string]models.OptionLabel{
		"easy":   models.OptionA,
		"medium": models.OptionB,
		"hard":   models.OptionC,
	}
	stats := map[string]*models.QuestionStats{
		"easy":   {QuestionID: "easy", SuccessRate: 0.9},
		"medium": {QuestionID: "medium", SuccessRate: 0.7},
		"hard":   {QuestionID: "hard", SuccessRate: 0.2},
	}

	// Correct on easy: +0.1, wrong on medium: -0.7, correct on hard: +0.8.
	// Mean = 0.2 / 3 = 0.0666...
	session := testCompletedSession("s1", []string{"easy", "medium", "hard"}, map[string]*models.OptionLabel{
		"easy":   optionPtr(models.OptionA),
		"medium": optionPtr(models.OptionD),
		"hard":   optionPtr(models.OptionC),
	})

	score, scored := relativeScore(session, stats, correct)
	assert.True(t, scored)
	assert.InDelta(t, 0.2/3.0, score, 1e-9)
}

func TestRelativeScore_UnansweredCountsAsWrong(t *testing.T) {
	correct := map[string]models.OptionLabel{"q1": models.OptionA}
	stats := map[string]*models.QuestionStats{
		"q1": {QuestionID: "q1", SuccessRate: 0.6},
	}

	// No answer row at all.
	session := testCompletedSession("s1", []string{"q1"}, nil)

	score, scored := relativeScore(session, stats, correct)
	assert.True(t, scored)
	assert.InDelta(t, -0.6, score, 1e-9)
}

func TestRelativeScore_NeutralPriorSymmetry(t *testing.T) {
	correct := map[string]models.OptionLabel{"q1": models.OptionA}
	stats := map[string]*models.QuestionStats{
		"q1": {QuestionID: "q1", SuccessRate: models.NeutralSuccessRate},
	}

	right := testCompletedSession("s1", []string{"q1"}, map[string]*models.OptionLabel{
		"q1": optionPtr(models.OptionA),
	})
	wrong := testCompletedSession("s2", []string{"q1"}, map[string]*models.OptionLabel{
		"q1": optionPtr(models.OptionB),
	})

	rightScore, _ := relativeScore(right, stats, correct)
	wrongScore, _ := relativeScore(wrong, stats, correct)

	assert.InDelta(t, 0.5, rightScore, 1e-9)
	assert.InDelta(t, -0.5, wrongScore, 1e-9)
}

func TestRelativeScore_NoStatsEntries(t *testing.T) {
	session := testCompletedSession("s1", []string{"q1"}, nil)

	score, scored := relativeScore(session, map[string]*models.QuestionStats{}, nil)
	assert.False(t, scored)
	assert.Equal(t, 0.0, score)
}

func TestRankAmong_TiesShareBestRank(t *testing.T) {
	scores := map[string]float64{
		"a": 0.8,
		"b": 0.8,
		"c": 0.5,
		"d": 0.3,
		"e": 0.1,
	}

	ranking := rankAmong(0.8, scores)

	assert.Equal(t, 1, ranking.Rank)
	assert.Equal(t, 5, ranking.TotalCandidates)
	// Three candidates strictly below 0.8 out of five.
	assert.Equal(t, 60, ranking.Percentile)
	assert.Equal(t, 0.8, ranking.RelativeScore)
}

func TestRankAmong_RoundsToThreeDecimals(t *testing.T) {
	scores := map[string]float64{"a": 0.2 / 3.0}

	ranking := rankAmong(0.2/3.0, scores)

	assert.Equal(t, 0.067, ranking.RelativeScore)
	assert.Equal(t, 1, ranking.Rank)
	assert.Equal(t, 0, ranking.Percentile)
	assert.Equal(t, 1, ranking.TotalCandidates)
}

func TestRankAmong_HalvesRoundTowardPositiveInfinity(t *testing.T) {
	// 0.0625 * 1000 is exactly 62.5, so both signs hit the half case.
	positive := rankAmong(0.0625, map[string]float64{"a": 0.0625})
	assert.Equal(t, 0.063, positive.RelativeScore)

	negative := rankAmong(-0.0625, map[string]float64{"a": -0.0625})
	assert.Equal(t, -0.062, negative.RelativeScore)
}

func TestStatsService_QuestionStats_Unattempted(t *testing.T) {
	mockQuestions := &MockQuestionRepository{}
	mockSessions := &MockSessionRepository{}

	q1 := testQuestion("q1", "sub", models.DifficultyMedium, models.OptionA)
	mockQuestions.On("GetByID", mock.Anything, "q1").Return(q1, nil)
	mockSessions.On("GetCompletedWithAnswers", mock.Anything).Return([]*models.ExamSession{}, nil)
	mockQuestions.On("GetByIDs", mock.Anything, []string{"q1"}).
		Return([]*models.Question{q1}, nil)

	service := newStatsServiceForTest(mockQuestions, mockSessions)

	stats, err := service.QuestionStats(context.Background(), "q1")
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAttempts)
	assert.InDelta(t, models.NeutralSuccessRate, stats.SuccessRate, 1e-9)
}

func TestStatsService_QuestionStats_UnknownQuestion(t *testing.T) {
	mockQuestions := &MockQuestionRepository{}
	mockSessions := &MockSessionRepository{}

	mockQuestions.On("GetByID", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

	service := newStatsServiceForTest(mockQuestions, mockSessions)

	_, err := service.QuestionStats(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	mockSessions.AssertNotCalled(t, "GetCompletedWithAnswers", mock.Anything)
}

func TestStatsService_Ranking(t *testing.T) {
	q1 := testQuestion("q1", "sub", models.DifficultyMedium, models.OptionA)
	q2 := testQuestion("q2", "sub", models.DifficultyHard, models.OptionB)

	// Two completed sessions over the same two questions. Each question has
	// one correct and one wrong attempt, so both carry successRate 0.5.
	// winner: +0.5 +0.5 -> 0.5, loser: -0.5 -0.5 -> -0.5.
	winner := testCompletedSession("winner", []string{"q1", "q2"}, map[string]*models.OptionLabel{
		"q1": optionPtr(models.OptionA),
		"q2": optionPtr(models.OptionB),
	})
	loser := testCompletedSession("loser", []string{"q1", "q2"}, map[string]*models.OptionLabel{
		"q1": optionPtr(models.OptionC),
		"q2": optionPtr(models.OptionC),
	})

	mockQuestions := &MockQuestionRepository{}
	mockSessions := &MockSessionRepository{}

	mockSessions.On("GetByIDWithAnswers", mock.Anything, "winner").Return(winner, nil)
	mockSessions.On("GetCompletedWithAnswers", mock.Anything).Return([]*models.ExamSession{winner, loser}, nil)
	mockQuestions.On("GetByIDs", mock.Anything, mock.Anything).Return([]*models.Question{q1, q2}, nil)

	service := newStatsServiceForTest(mockQuestions, mockSessions)

	ranking, err := service.Ranking(context.Background(), "winner")
	assert.NoError(t, err)
	assert.Equal(t, 1, ranking.Rank)
	assert.Equal(t, 2, ranking.TotalCandidates)
	assert.Equal(t, 50, ranking.Percentile)
	assert.Equal(t, 0.5, ranking.RelativeScore)
}

func TestStatsService_Ranking_SessionNotCompleted(t *testing.T) {
	session := testCompletedSession("s1", []string{"q1"}, nil)
	session.Status = models.SessionInProgress

	mockQuestions := &MockQuestionRepository{}
	mockSessions := &MockSessionRepository{}
	mockSessions.On("GetByIDWithAnswers", mock.Anything, "s1").Return(session, nil)

	service := newStatsServiceForTest(mockQuestions, mockSessions)

	_, err := service.Ranking(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrRankingNotAvailable)
}

func TestStatsService_Ranking_SessionMissing(t *testing.T) {
	mockQuestions := &MockQuestionRepository{}
	mockSessions := &MockSessionRepository{}
	mockSessions.On("GetByIDWithAnswers", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

	service := newStatsServiceForTest(mockQuestions, mockSessions)

	_, err := service.Ranking(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
