package services

import (
	"math"
	"sort"

	"github.com/radcert-prep/exam-service/internal/models"
)

// buildExamResults derives the full results payload from a session and its
// question records. It is a pure function: calling it twice with the same
// inputs yields identical output, so stored and recomputed results agree.
func buildExamResults(session *models.ExamSession, questions []*models.Question, answers map[string]models.AnswerData) *ExamResults {
	results := make([]QuestionResult, 0, len(questions))
	score := 0

	subtopicTotals := make(map[string]*SubtopicPerformance)
	difficultyTotals := make(map[models.DifficultyLevel]*DifficultyPerformance)

	for _, q := range questions {
		answer := answers[q.ID]

		correct := answer.Selected != nil && *answer.Selected == q.CorrectAnswer
		if correct {
			score++
		}

		results = append(results, QuestionResult{
			ID:   q.ID,
			Stem: q.Stem,
			Options: OptionSet{
				A: q.OptionA,
				B: q.OptionB,
				C: q.OptionC,
				D: q.OptionD,
				E: q.OptionE,
			},
			CorrectAnswer:  q.CorrectAnswer,
			SelectedAnswer: answer.Selected,
			IsCorrect:      correct,
			Flagged:        answer.Flagged,
			Explanation:    q.Explanation,
			LearningPoint:  q.LearningPoint,
			Subtopic:       q.Subtopic,
			Difficulty:     q.Difficulty,
		})

		st, ok := subtopicTotals[q.Subtopic]
		if !ok {
			st = &SubtopicPerformance{Subtopic: q.Subtopic}
			subtopicTotals[q.Subtopic] = st
		}
		st.Total++
		if correct {
			st.Correct++
		}

		df, ok := difficultyTotals[q.Difficulty]
		if !ok {
			df = &DifficultyPerformance{Difficulty: q.Difficulty}
			difficultyTotals[q.Difficulty] = df
		}
		df.Total++
		if correct {
			df.Correct++
		}
	}

	total := len(questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	// Client-reported timeRemaining passes through unmodified, so a value
	// above the limit yields a negative timeTaken.
	timeTaken := session.TimeLimit - session.TimeRemaining

	return &ExamResults{
		SessionID:             session.ID,
		Score:                 score,
		TotalQuestions:        total,
		Percentage:            percentage,
		TimeTaken:             timeTaken,
		TimeLimit:             session.TimeLimit,
		Questions:             results,
		SubtopicPerformance:   collectSubtopicPerformance(subtopicTotals),
		DifficultyPerformance: collectDifficultyPerformance(difficultyTotals),
	}
}

func collectSubtopicPerformance(totals map[string]*SubtopicPerformance) []SubtopicPerformance {
	perf := make([]SubtopicPerformance, 0, len(totals))
	for _, p := range totals {
		p.Percentage = roundedPercentage(p.Correct, p.Total)
		perf = append(perf, *p)
	}
	sort.Slice(perf, func(i, j int) bool {
		return perf[i].Subtopic < perf[j].Subtopic
	})
	return perf
}

func collectDifficultyPerformance(totals map[models.DifficultyLevel]*DifficultyPerformance) []DifficultyPerformance {
	perf := make([]DifficultyPerformance, 0, len(totals))
	for _, p := range totals {
		p.Percentage = roundedPercentage(p.Correct, p.Total)
		perf = append(perf, *p)
	}
	sort.Slice(perf, func(i, j int) bool {
		return models.DifficultyRank(perf[i].Difficulty) < models.DifficultyRank(perf[j].Difficulty)
	})
	return perf
}

func roundedPercentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
