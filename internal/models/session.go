package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	// SessionAbandoned is a legal terminal state, but no operation in this
	// service transitions into it. It exists for external/administrative
	// sweeps, e.g. a cron that expires stale sessions.
	SessionAbandoned SessionStatus = "abandoned"
)

// IsTerminal reports whether no further mutation of the session is allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// ExamSession is one candidate's exam attempt. Sessions are anonymous:
// anyone presenting the session id may continue the exam.
type ExamSession struct {
	ID             string                      `json:"id" gorm:"primaryKey;size:36"`
	QuestionIDs    datatypes.JSONSlice[string] `json:"question_ids" gorm:"not null;type:jsonb"`
	TotalQuestions int                         `json:"total_questions" gorm:"not null"`

	// TimeLimit is fixed at creation; TimeRemaining is client-reported.
	TimeLimit     int `json:"time_limit" gorm:"not null"`
	TimeRemaining int `json:"time_remaining" gorm:"not null"`

	Status SessionStatus `json:"status" gorm:"not null;default:in_progress;index"`

	// Score and Percentage are set exactly once, at completion.
	Score      *int `json:"score"`
	Percentage *int `json:"percentage"`

	SubtopicFilter   datatypes.JSONSlice[string]          `json:"subtopic_filter" gorm:"type:jsonb"`
	DifficultyFilter datatypes.JSONSlice[DifficultyLevel] `json:"difficulty_filter" gorm:"type:jsonb"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []SessionAnswer `json:"-" gorm:"foreignKey:SessionID;references:ID"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// SessionAnswer is the per-question answer record of a session. Answers are
// stored one row per question rather than as a single JSON blob, so that
// concurrent writes to different questions of the same session never clobber
// each other.
type SessionAnswer struct {
	ID         uint   `json:"-" gorm:"primaryKey"`
	SessionID  string `json:"-" gorm:"not null;size:36;uniqueIndex:idx_session_question"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;uniqueIndex:idx_session_question"`

	// Selected is nil while the question is unanswered. An unanswered row can
	// still exist when the candidate flagged the question without answering.
	Selected *OptionLabel `json:"selected" gorm:"size:1"`
	Flagged  bool         `json:"flagged" gorm:"not null;default:false"`
	// TimeSpent is cumulative seconds, client-reported.
	TimeSpent int `json:"time_spent" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (SessionAnswer) TableName() string {
	return "session_answers"
}

// AnswerData is the wire shape of one question's answer state inside a
// session payload, keyed by question id.
type AnswerData struct {
	Selected  *OptionLabel `json:"selected"`
	Flagged   bool         `json:"flagged"`
	TimeSpent int          `json:"time_spent"`
}

// AnswerMap flattens the session's answer rows into the map shape clients
// consume. Questions without a row are absent, not defaulted.
func (s *ExamSession) AnswerMap() map[string]AnswerData {
	m := make(map[string]AnswerData, len(s.Answers))
	for _, a := range s.Answers {
		m[a.QuestionID] = AnswerData{
			Selected:  a.Selected,
			Flagged:   a.Flagged,
			TimeSpent: a.TimeSpent,
		}
	}
	return m
}

// HasQuestion reports whether the question id was selected for this session.
func (s *ExamSession) HasQuestion(questionID string) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}
