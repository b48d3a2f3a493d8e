package session

import (
	"time"

	"github.com/prepkit/prepkit-backend/internal/model"
)

// AdaptiveSecondsTable is the canonical per-question time allotment for
// adaptive timing, keyed by difficulty level. Monotonically increasing.
var AdaptiveSecondsTable = map[model.Difficulty]int{
	model.DifficultyBasic:    30,
	model.DifficultyEasy:     36,
	model.DifficultyMedium:   42,
	model.DifficultyHard:     48,
	model.DifficultyVeryHard: 54,
}

// defaultAdaptiveSeconds covers questions with an out-of-range difficulty.
const defaultAdaptiveSeconds = 42

// QuestionSeconds returns the pacing allotment for one question under the
// configured timing mode, or 0 for untimed sessions. This is a UI signal
// only: the engine never auto-advances when it elapses.
func QuestionSeconds(config model.ExamConfiguration, q model.Question) int {
	switch config.TimingMode {
	case model.TimingFixed:
		return config.FixedSecondsPerQ
	case model.TimingNone:
		return 0
	default:
		if sec, ok := AdaptiveSecondsTable[q.Difficulty]; ok {
			return sec
		}
		return defaultAdaptiveSeconds
	}
}

// TotalBudget computes the whole-exam time budget for the chosen question
// list. Zero means untimed.
func TotalBudget(config model.ExamConfiguration, questions []model.Question) time.Duration {
	if config.TimingMode == model.TimingNone {
		return 0
	}
	total := 0
	for _, q := range questions {
		total += QuestionSeconds(config, q)
	}
	return time.Duration(total) * time.Second
}
