package session

import (
	"sort"
	"time"

	"github.com/prepkit/prepkit-backend/internal/model"
)

// computeResult builds the immutable ExamResult for a finished state.
// Weak areas are topics under the accuracy threshold, sorted ascending by
// accuracy (topic id as tie break) so the worst area always comes first.
func computeResult(state *model.SessionState, completedAt time.Time) *model.ExamResult {
	result := &model.ExamResult{
		SessionID:      state.ID,
		UserID:         state.UserID,
		Subject:        state.Config.Subject,
		Mode:           state.Config.Difficulty,
		CompletedAt:    completedAt,
		TotalQuestions: len(state.Questions),
		Outcomes:       make([]model.QuestionOutcome, 0, len(state.Questions)),
		Saved:          false,
	}

	type topicAcc struct {
		count   int
		correct int
		time    float64
	}
	byTopic := make(map[string]*topicAcc)

	for i, q := range state.Questions {
		answer := state.Answers[i]
		correct := answer.SelectedOption != nil && *answer.SelectedOption == q.CorrectOption
		if correct {
			result.CorrectCount++
		}

		result.Outcomes = append(result.Outcomes, model.QuestionOutcome{
			QuestionID:    q.ID,
			TopicID:       q.TopicID,
			ChosenOption:  answer.SelectedOption,
			CorrectOption: q.CorrectOption,
			Correct:       correct,
			TimeSpentSec:  answer.TimeSpentSec,
			Flagged:       answer.Flagged,
		})

		acc, ok := byTopic[q.TopicID]
		if !ok {
			acc = &topicAcc{}
			byTopic[q.TopicID] = acc
		}
		acc.count++
		if correct {
			acc.correct++
		}
		acc.time += answer.TimeSpentSec
	}

	if result.TotalQuestions > 0 {
		result.ScorePercentage = 100 * float64(result.CorrectCount) / float64(result.TotalQuestions)
	}

	for topic, acc := range byTopic {
		result.TopicStats = append(result.TopicStats, model.TopicStats{
			TopicID:        topic,
			Count:          acc.count,
			Correct:        acc.correct,
			Percentage:     100 * float64(acc.correct) / float64(acc.count),
			AverageTimeSec: acc.time / float64(acc.count),
		})
	}
	sort.Slice(result.TopicStats, func(i, j int) bool {
		a, b := result.TopicStats[i], result.TopicStats[j]
		if a.Percentage != b.Percentage {
			return a.Percentage < b.Percentage
		}
		return a.TopicID < b.TopicID
	})

	result.WeakAreas = []string{}
	for _, ts := range result.TopicStats {
		if ts.Percentage < model.WeakAreaThreshold {
			result.WeakAreas = append(result.WeakAreas, ts.TopicID)
		}
	}

	return result
}
