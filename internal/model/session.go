package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session lifecycle states.
type SessionStatus string

const (
	SessionStatusCreated  SessionStatus = "CREATED"
	SessionStatusActive   SessionStatus = "ACTIVE"
	SessionStatusPaused   SessionStatus = "PAUSED"
	SessionStatusFinished SessionStatus = "FINISHED"
)

// Live reports whether the session can still be resumed.
func (s SessionStatus) Live() bool {
	return s != SessionStatusFinished
}

// AnswerRecord tracks the user's interaction with one question. The slice
// of records is index-aligned with the session's question list.
type AnswerRecord struct {
	SelectedOption *string `json:"selected_option,omitempty"`
	TimeSpentSec   float64 `json:"time_spent_sec"`
	Flagged        bool    `json:"flagged"`
	Visited        bool    `json:"visited"`
}

// SessionState is the full serializable state of one exam attempt.
// It is mutated only by the session engine.
type SessionState struct {
	ID            uuid.UUID         `json:"id"`
	UserID        string            `json:"user_id"`
	Config        ExamConfiguration `json:"config"`
	Questions     []Question        `json:"questions"`
	CurrentIndex  int               `json:"current_index"`
	Answers       []AnswerRecord    `json:"answers"`
	Status        SessionStatus     `json:"status"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	PausedTotal   time.Duration     `json:"paused_total_ns"`
	PauseStart    *time.Time        `json:"pause_start,omitempty"`
	TotalBudgetMs int64             `json:"total_budget_ms"`
	CreatedAt     time.Time         `json:"created_at"`
	LastSavedAt   *time.Time        `json:"last_saved_at,omitempty"`
}

// Progress is a read-only summary of session completion.
type Progress struct {
	Total           int     `json:"total"`
	Answered        int     `json:"answered"`
	Flagged         int     `json:"flagged"`
	Visited         int     `json:"visited"`
	PercentComplete float64 `json:"percent_complete"`
}
