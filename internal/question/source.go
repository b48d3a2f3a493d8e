// Package question provides read access to the locally cached question
// bank and the per-topic seen-question registry.
package question

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/store"
)

// Filter narrows a question bank query. Empty fields match everything;
// Topics containing model.TopicAll matches every topic of the subject.
type Filter struct {
	Subject          string
	Topics           []string
	DifficultyLevels []model.Difficulty
}

// Source queries question records out of the store's questions collection.
// Pure reads, no session state.
type Source struct {
	store store.Store
	log   zerolog.Logger
}

// NewSource creates a question Source backed by st.
func NewSource(st store.Store, log zerolog.Logger) *Source {
	return &Source{
		store: st,
		log:   log.With().Str("component", "question_source").Logger(),
	}
}

// QueryQuestions returns every bank question matching the filter.
func (s *Source) QueryQuestions(ctx context.Context, f Filter) ([]model.Question, error) {
	records, err := s.store.GetAll(ctx, store.CollectionQuestions)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	topicSet := make(map[string]struct{}, len(f.Topics))
	allTopics := len(f.Topics) == 0
	for _, t := range f.Topics {
		if t == model.TopicAll {
			allTopics = true
		}
		topicSet[t] = struct{}{}
	}

	levelSet := make(map[model.Difficulty]struct{}, len(f.DifficultyLevels))
	for _, l := range f.DifficultyLevels {
		levelSet[l] = struct{}{}
	}

	var out []model.Question
	for key, raw := range records {
		var q model.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			s.log.Warn().Str("key", key).Err(err).Msg("Skipping malformed question record")
			continue
		}
		if f.Subject != "" && q.SubjectID != f.Subject {
			continue
		}
		if !allTopics {
			if _, ok := topicSet[q.TopicID]; !ok {
				continue
			}
		}
		if len(levelSet) > 0 {
			if _, ok := levelSet[q.Difficulty]; !ok {
				continue
			}
		}
		out = append(out, q)
	}
	return out, nil
}

// GetQuestionByID returns a single question, or nil when absent.
func (s *Source) GetQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	raw, err := s.store.Get(ctx, store.CollectionQuestions, id)
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}
	var q model.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode question %s: %w", id, err)
	}
	return &q, nil
}

// Count returns the number of records in the question bank.
func (s *Source) Count(ctx context.Context) (int, error) {
	records, err := s.store.GetAll(ctx, store.CollectionQuestions)
	if err != nil {
		return 0, fmt.Errorf("load question bank: %w", err)
	}
	return len(records), nil
}

// Import stores the given questions in bulk, keyed by question id.
// Used by the import tool to seed the bank.
func (s *Source) Import(ctx context.Context, questions []model.Question) (int, error) {
	stored := 0
	for _, q := range questions {
		if q.ID == "" || q.SubjectID == "" || q.TopicID == "" || !q.Difficulty.Valid() {
			s.log.Warn().Str("id", q.ID).Msg("Skipping invalid question on import")
			continue
		}
		raw, err := json.Marshal(q)
		if err != nil {
			return stored, fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		if err := s.store.Put(ctx, store.CollectionQuestions, q.ID, raw); err != nil {
			return stored, fmt.Errorf("store question %s: %w", q.ID, err)
		}
		stored++
	}
	return stored, nil
}
