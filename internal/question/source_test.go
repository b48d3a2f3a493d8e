package question

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/store"
)

func bankQuestion(id, subject, topic string, level model.Difficulty) model.Question {
	return model.Question{
		ID:         id,
		SubjectID:  subject,
		TopicID:    topic,
		Difficulty: level,
		Prompt:     "prompt " + id,
		Options: []model.Option{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
		},
		CorrectOption: "a",
	}
}

func newTestSource(t *testing.T, questions ...model.Question) *Source {
	t.Helper()
	s := NewSource(store.NewMemory(), zerolog.Nop())
	if _, err := s.Import(context.Background(), questions); err != nil {
		t.Fatalf("import: %v", err)
	}
	return s
}

func TestQueryQuestionsFilters(t *testing.T) {
	src := newTestSource(t,
		bankQuestion("q1", "physiology", "renal", model.DifficultyEasy),
		bankQuestion("q2", "physiology", "renal", model.DifficultyHard),
		bankQuestion("q3", "physiology", "cardiac", model.DifficultyEasy),
		bankQuestion("q4", "anatomy", "renal", model.DifficultyEasy),
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "by subject and topic",
			filter: Filter{Subject: "physiology", Topics: []string{"renal"}},
			want:   []string{"q1", "q2"},
		},
		{
			name:   "all topics wildcard",
			filter: Filter{Subject: "physiology", Topics: []string{model.TopicAll}},
			want:   []string{"q1", "q2", "q3"},
		},
		{
			name:   "by difficulty",
			filter: Filter{Subject: "physiology", Topics: []string{model.TopicAll}, DifficultyLevels: []model.Difficulty{model.DifficultyHard}},
			want:   []string{"q2"},
		},
		{
			name:   "no match",
			filter: Filter{Subject: "biochem"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.QueryQuestions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d questions, want %d", len(got), len(tt.want))
			}
			ids := make(map[string]bool, len(got))
			for _, q := range got {
				ids[q.ID] = true
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("missing question %s", id)
				}
			}
		})
	}
}

func TestGetQuestionByID(t *testing.T) {
	src := newTestSource(t, bankQuestion("q1", "physiology", "renal", model.DifficultyEasy))
	ctx := context.Background()

	q, err := src.GetQuestionByID(ctx, "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q == nil || q.ID != "q1" || q.TopicID != "renal" {
		t.Errorf("got %+v", q)
	}

	q, err = src.GetQuestionByID(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if q != nil {
		t.Errorf("missing question should be nil, got %+v", q)
	}
}

func TestImportSkipsInvalidRecords(t *testing.T) {
	src := NewSource(store.NewMemory(), zerolog.Nop())
	ctx := context.Background()

	stored, err := src.Import(ctx, []model.Question{
		bankQuestion("q1", "physiology", "renal", model.DifficultyEasy),
		{ID: "", SubjectID: "physiology", TopicID: "renal", Difficulty: model.DifficultyEasy},
		{ID: "q3", SubjectID: "physiology", TopicID: "renal", Difficulty: model.Difficulty(9)},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1", stored)
	}

	count, err := src.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
