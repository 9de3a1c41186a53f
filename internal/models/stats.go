package models

// NeutralSuccessRate is the prior assigned to a question nobody has
// attempted yet.
const NeutralSuccessRate = 0.5

// QuestionStats is the empirical performance of one question across all
// completed sessions. Derived on demand, never persisted.
type QuestionStats struct {
	QuestionID    string  `json:"question_id"`
	TotalAttempts int     `json:"total_attempts"`
	CorrectCount  int     `json:"correct_count"`
	SuccessRate   float64 `json:"success_rate"`
}

// RankingResult positions one completed session among all completed
// sessions by difficulty-weighted relative score.
type RankingResult struct {
	RelativeScore   float64 `json:"relative_score"`
	Percentile      int     `json:"percentile"`
	Rank            int     `json:"rank"`
	TotalCandidates int     `json:"total_candidates"`
}
