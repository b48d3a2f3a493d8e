package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/model"
)

// fakeClock is a manually advanced clock shared by the session tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testQuestion(id, topic string, level model.Difficulty, correct string) model.Question {
	return model.Question{
		ID:         id,
		SubjectID:  "physiology",
		TopicID:    topic,
		Difficulty: level,
		Prompt:     "prompt " + id,
		Options: []model.Option{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
		},
		CorrectOption: correct,
	}
}

// newTestState builds a CREATED state with n medium questions and an
// adaptive budget (42s each).
func newTestState(n int) *model.SessionState {
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, testQuestion(fmt.Sprintf("q%d", i), "renal", model.DifficultyMedium, "a"))
	}
	config := model.ExamConfiguration{
		Subject:       "physiology",
		Topics:        []string{"renal"},
		QuestionCount: n,
		Difficulty:    model.DifficultyMixed,
		TimingMode:    model.TimingAdaptive,
	}
	return &model.SessionState{
		ID:            uuid.New(),
		UserID:        "user-1",
		Config:        config,
		Questions:     questions,
		Answers:       make([]model.AnswerRecord, n),
		Status:        model.SessionStatusCreated,
		TotalBudgetMs: TotalBudget(config, questions).Milliseconds(),
		CreatedAt:     time.Date(2026, 3, 14, 8, 59, 0, 0, time.UTC),
	}
}

func newTestEngine(n int) (*Engine, *fakeClock) {
	clock := newFakeClock()
	return NewEngine(newTestState(n), clock.Now, zerolog.Nop()), clock
}

func TestStartTransitionsToActive(t *testing.T) {
	eng, clock := newTestEngine(3)

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	state := eng.State()
	if state.Status != model.SessionStatusActive {
		t.Errorf("status = %s, want ACTIVE", state.Status)
	}
	if state.StartedAt == nil || !state.StartedAt.Equal(clock.Now()) {
		t.Errorf("StartedAt = %v, want %v", state.StartedAt, clock.Now())
	}
	if !state.Answers[0].Visited {
		t.Error("first question not marked visited on start")
	}

	// Starting an active session is a no-op.
	clock.Advance(5 * time.Second)
	if err := eng.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !state.StartedAt.Equal(clock.Now().Add(-5 * time.Second)) {
		t.Error("second start rewrote StartedAt")
	}
}

func TestEndBeforeStartFails(t *testing.T) {
	eng, _ := newTestEngine(2)
	if _, err := eng.End(); !errors.Is(err, ErrSessionNotStarted) {
		t.Errorf("End on CREATED = %v, want ErrSessionNotStarted", err)
	}
}

func TestPauseBeforeStartFails(t *testing.T) {
	eng, _ := newTestEngine(2)
	if err := eng.Pause(); !errors.Is(err, ErrSessionNotStarted) {
		t.Errorf("Pause on CREATED = %v, want ErrSessionNotStarted", err)
	}
	if eng.State().Status != model.SessionStatusCreated {
		t.Errorf("status = %s, want CREATED unchanged", eng.State().Status)
	}
}

func TestPauseResumeTimeEquivalence(t *testing.T) {
	// A session paused and resumed any number of times consumes exactly the
	// active time, regardless of how long the pauses lasted.
	eng, clock := newTestEngine(3) // budget 3*42s = 126s
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	active := time.Duration(0)
	for cycle, pauseLen := range []time.Duration{time.Minute, time.Hour, 24 * time.Hour} {
		clock.Advance(10 * time.Second)
		active += 10 * time.Second

		if err := eng.Pause(); err != nil {
			t.Fatalf("pause %d: %v", cycle, err)
		}
		clock.Advance(pauseLen)
		if err := eng.Resume(); err != nil {
			t.Fatalf("resume %d: %v", cycle, err)
		}
	}
	clock.Advance(6 * time.Second)
	active += 6 * time.Second

	remaining, unbounded := eng.TimeRemaining()
	if unbounded {
		t.Fatal("adaptive session reported as unbounded")
	}
	want := 126.0 - active.Seconds()
	if remaining != want {
		t.Errorf("remaining = %.1fs, want %.1fs", remaining, want)
	}
}

func TestTimeRemainingWhilePausedIsFrozen(t *testing.T) {
	eng, clock := newTestEngine(2) // budget 84s
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(20 * time.Second)
	if err := eng.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	before, _ := eng.TimeRemaining()
	clock.Advance(3 * time.Hour)
	after, _ := eng.TimeRemaining()
	if before != after {
		t.Errorf("remaining moved while paused: %.1fs -> %.1fs", before, after)
	}
	if before != 64 {
		t.Errorf("remaining = %.1fs, want 64s", before)
	}
}

func TestTimeRemainingClampsAtZero(t *testing.T) {
	eng, clock := newTestEngine(1) // budget 42s
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(10 * time.Minute)

	remaining, unbounded := eng.TimeRemaining()
	if unbounded || remaining != 0 {
		t.Errorf("overrun remaining = (%.1f, %v), want (0, false)", remaining, unbounded)
	}
}

func TestTimeRemainingUnboundedForUntimed(t *testing.T) {
	eng, _ := newTestEngine(2)
	eng.State().Config.TimingMode = model.TimingNone
	eng.State().TotalBudgetMs = 0
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, unbounded := eng.TimeRemaining(); !unbounded {
		t.Error("untimed session not reported as unbounded")
	}
}

func TestNavigationAccruesTimePerQuestion(t *testing.T) {
	eng, clock := newTestEngine(3)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(10 * time.Second)
	if err := eng.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Advance(7 * time.Second)
	if err := eng.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	clock.Advance(4 * time.Second)
	if err := eng.GoTo(2); err != nil {
		t.Fatalf("goto: %v", err)
	}

	state := eng.State()
	wantSpent := []float64{14, 7, 0}
	for i, want := range wantSpent {
		if got := state.Answers[i].TimeSpentSec; got != want {
			t.Errorf("question %d spent %.1fs, want %.1fs", i, got, want)
		}
	}
	for i := range state.Answers {
		if !state.Answers[i].Visited {
			t.Errorf("question %d not marked visited", i)
		}
	}
	if state.CurrentIndex != 2 {
		t.Errorf("current index = %d, want 2", state.CurrentIndex)
	}
}

func TestSubmitAnswerDoesNotAccrueTime(t *testing.T) {
	eng, clock := newTestEngine(2)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(5 * time.Second)
	if err := eng.SubmitAnswer("b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := eng.SubmitAnswer("a"); err != nil {
		t.Fatalf("re-submit: %v", err)
	}

	state := eng.State()
	if state.Answers[0].TimeSpentSec != 0 {
		t.Errorf("submit accrued %.1fs, time must come from navigation only", state.Answers[0].TimeSpentSec)
	}
	if state.Answers[0].SelectedOption == nil || *state.Answers[0].SelectedOption != "a" {
		t.Errorf("selected option = %v, want re-submitted value a", state.Answers[0].SelectedOption)
	}

	// Leaving the question accrues the whole interval since entry.
	clock.Advance(2 * time.Second)
	if err := eng.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := state.Answers[0].TimeSpentSec; got != 12 {
		t.Errorf("question 0 spent %.1fs, want 12s", got)
	}
}

func TestGoToOutOfRangeIsNoOp(t *testing.T) {
	eng, _ := newTestEngine(3)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, index := range []int{-1, 3, 99} {
		if err := eng.GoTo(index); err != nil {
			t.Errorf("GoTo(%d) = %v, want nil (no-op)", index, err)
		}
		if got := eng.State().CurrentIndex; got != 0 {
			t.Errorf("GoTo(%d) moved index to %d", index, got)
		}
	}
}

func TestPrevAtFirstQuestionStays(t *testing.T) {
	eng, _ := newTestEngine(2)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Prev(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if got := eng.State().CurrentIndex; got != 0 {
		t.Errorf("prev at index 0 moved to %d", got)
	}
}

func TestFlagToggleAndSet(t *testing.T) {
	eng, _ := newTestEngine(2)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := eng.ToggleFlag(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !eng.State().Answers[0].Flagged {
		t.Error("flag not set after toggle")
	}
	if err := eng.ToggleFlag(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if eng.State().Answers[0].Flagged {
		t.Error("flag not cleared by second toggle")
	}
	if err := eng.SetFlag(true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if !eng.State().Answers[0].Flagged {
		t.Error("flag not set explicitly")
	}
}

func TestProgressCounts(t *testing.T) {
	eng, _ := newTestEngine(4)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.SubmitAnswer("a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := eng.ToggleFlag(); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if err := eng.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	p := eng.Progress()
	if p.Total != 4 || p.Answered != 1 || p.Flagged != 1 || p.Visited != 2 {
		t.Errorf("progress = %+v, want total 4, answered 1, flagged 1, visited 2", p)
	}
	if p.PercentComplete != 25 {
		t.Errorf("percent complete = %.1f, want 25", p.PercentComplete)
	}
}

func TestFinishedSessionIsImmutable(t *testing.T) {
	eng, clock := newTestEngine(2)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(3 * time.Second)
	if _, err := eng.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	ops := map[string]func() error{
		"start":  eng.Start,
		"pause":  eng.Pause,
		"resume": eng.Resume,
		"next":   eng.Next,
		"prev":   eng.Prev,
		"goto":   func() error { return eng.GoTo(1) },
		"submit": func() error { return eng.SubmitAnswer("a") },
		"toggle": eng.ToggleFlag,
		"flag":   func() error { return eng.SetFlag(true) },
		"end":    func() error { _, err := eng.End(); return err },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrSessionFinished) {
			t.Errorf("%s on finished session = %v, want ErrSessionFinished", name, err)
		}
	}
	if eng.State().Status != model.SessionStatusFinished {
		t.Errorf("status = %s, want FINISHED", eng.State().Status)
	}
}

func TestEndWhilePausedClosesPause(t *testing.T) {
	eng, clock := newTestEngine(2)
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(8 * time.Second)
	if err := eng.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(time.Hour)

	result, err := eng.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	state := eng.State()
	if state.PauseStart != nil {
		t.Error("open pause not closed on end")
	}
	if state.PausedTotal != time.Hour {
		t.Errorf("paused total = %v, want 1h", state.PausedTotal)
	}
	if !result.CompletedAt.Equal(clock.Now()) {
		t.Errorf("completed at = %v, want %v", result.CompletedAt, clock.Now())
	}
	// Time in the paused hour never reaches the question record.
	if state.Answers[0].TimeSpentSec != 8 {
		t.Errorf("question 0 spent %.1fs, want 8s", state.Answers[0].TimeSpentSec)
	}
}
