package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionOutcome is the per-question snapshot embedded in an ExamResult.
type QuestionOutcome struct {
	QuestionID    string  `json:"question_id"`
	TopicID       string  `json:"topic_id"`
	ChosenOption  *string `json:"chosen_option,omitempty"`
	CorrectOption string  `json:"correct_option"`
	Correct       bool    `json:"correct"`
	TimeSpentSec  float64 `json:"time_spent_sec"`
	Flagged       bool    `json:"flagged"`
}

// TopicStats aggregates outcomes for one topic within a completed session.
type TopicStats struct {
	TopicID        string  `json:"topic_id"`
	Count          int     `json:"count"`
	Correct        int     `json:"correct"`
	Percentage     float64 `json:"percentage"`
	AverageTimeSec float64 `json:"average_time_sec"`
}

// WeakAreaThreshold is the accuracy percentage below which a topic is
// reported as a weak area.
const WeakAreaThreshold = 70.0

// ExamResult is the immutable outcome of a finished session.
type ExamResult struct {
	SessionID       uuid.UUID         `json:"session_id"`
	UserID          string            `json:"user_id"`
	Subject         string            `json:"subject"`
	Mode            DifficultyMode    `json:"mode"`
	CompletedAt     time.Time         `json:"completed_at"`
	TotalQuestions  int               `json:"total_questions"`
	CorrectCount    int               `json:"correct_count"`
	ScorePercentage float64           `json:"score_percentage"`
	Outcomes        []QuestionOutcome `json:"outcomes"`
	TopicStats      []TopicStats      `json:"topic_stats"`
	WeakAreas       []string          `json:"weak_areas"`
	// Saved is false when durable persistence of this result failed and
	// the caller should retry. Not serialized as part of the record.
	Saved bool `json:"-"`
}
