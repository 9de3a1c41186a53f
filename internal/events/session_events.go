package events

import (
	"time"

	"github.com/radcert-prep/exam-service/internal/models"
)

// EventType identifies the kind of session lifecycle event
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
)

// SessionEvent is the envelope for all exam session events
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionStartedEvent struct {
	SessionID      string                   `json:"session_id"`
	TotalQuestions int                      `json:"total_questions"`
	TimeLimit      int                      `json:"time_limit"` // seconds
	Subtopics      []string                 `json:"subtopics,omitempty"`
	Difficulties   []models.DifficultyLevel `json:"difficulties,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
}

type SessionCompletedEvent struct {
	SessionID      string    `json:"session_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
	TimeTaken      int       `json:"time_taken"` // seconds
	CompletedAt    time.Time `json:"completed_at"`
}

func newSessionStartedEvent(session *models.ExamSession) *SessionStartedEvent {
	return &SessionStartedEvent{
		SessionID:      session.ID,
		TotalQuestions: session.TotalQuestions,
		TimeLimit:      session.TimeLimit,
		Subtopics:      session.SubtopicFilter,
		Difficulties:   session.DifficultyFilter,
		StartedAt:      session.StartedAt,
	}
}

func newSessionCompletedEvent(session *models.ExamSession, score, percentage int) *SessionCompletedEvent {
	completedAt := time.Now().UTC()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}
	return &SessionCompletedEvent{
		SessionID:      session.ID,
		Score:          score,
		TotalQuestions: session.TotalQuestions,
		Percentage:     percentage,
		TimeTaken:      session.TimeLimit - session.TimeRemaining,
		CompletedAt:    completedAt,
	}
}
