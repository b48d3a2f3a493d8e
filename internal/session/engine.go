// Package session owns the exam session lifecycle: the state machine,
// pause/resume time accounting, result computation, durable auto-save and
// resume, and the one-live-session-per-user rule.
package session

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/model"
)

var (
	// ErrSessionFinished is returned by every mutating operation on a
	// terminal session. Recoverable: the caller starts a new session.
	ErrSessionFinished = errors.New("session is finished")
	// ErrSessionNotStarted is returned by operations that require the
	// session to have left the CREATED state.
	ErrSessionNotStarted = errors.New("session not started")
)

// Clock abstracts wall time so pause accounting is testable.
type Clock func() time.Time

// Engine drives one SessionState through its lifecycle. It holds the only
// non-serializable runtime mark (when the current question was entered);
// everything else lives in the state and survives a save/load round trip.
//
// The engine itself is not safe for concurrent use; the manager serializes
// access per user.
type Engine struct {
	state *model.SessionState
	clock Clock
	log   zerolog.Logger

	// questionEnteredAt is set while the session is active and marks when
	// the current question started accruing time. Nil while paused or
	// before start, so no time is double counted.
	questionEnteredAt *time.Time
}

// NewEngine wraps an existing state. A nil clock gets time.Now.
func NewEngine(state *model.SessionState, clock Clock, log zerolog.Logger) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		state: state,
		clock: clock,
		log:   log.With().Str("component", "session_engine").Str("session_id", state.ID.String()).Logger(),
	}
}

// State exposes the underlying session state for serialization and reads.
func (e *Engine) State() *model.SessionState {
	return e.state
}

// Start transitions CREATED to ACTIVE, recording the wall-clock start.
// On a paused session it behaves as Resume; on an active one it is a
// no-op. Fails with ErrSessionFinished on a terminal session.
func (e *Engine) Start() error {
	switch e.state.Status {
	case model.SessionStatusFinished:
		return ErrSessionFinished
	case model.SessionStatusPaused:
		return e.Resume()
	case model.SessionStatusActive:
		return nil
	}

	now := e.clock()
	e.state.StartedAt = &now
	e.state.Status = model.SessionStatusActive
	if len(e.state.Answers) > 0 {
		e.state.Answers[e.state.CurrentIndex].Visited = true
	}
	e.enterQuestion(now)
	e.log.Info().Time("started_at", now).Msg("Session started")
	return nil
}

// Pause transitions ACTIVE to PAUSED. Already-paused sessions are a no-op;
// time stops accruing until Resume. Pausing before Start fails.
func (e *Engine) Pause() error {
	switch e.state.Status {
	case model.SessionStatusFinished:
		return ErrSessionFinished
	case model.SessionStatusCreated:
		return ErrSessionNotStarted
	case model.SessionStatusPaused:
		return nil
	}

	now := e.clock()
	e.accrueTime(now)
	e.state.PauseStart = &now
	e.state.Status = model.SessionStatusPaused
	return nil
}

// Resume transitions PAUSED to ACTIVE, folding the pause interval into the
// cumulative paused-duration accumulator.
func (e *Engine) Resume() error {
	switch e.state.Status {
	case model.SessionStatusFinished:
		return ErrSessionFinished
	case model.SessionStatusActive, model.SessionStatusCreated:
		return nil
	}

	now := e.clock()
	if e.state.PauseStart != nil {
		e.state.PausedTotal += now.Sub(*e.state.PauseStart)
		e.state.PauseStart = nil
	}
	e.state.Status = model.SessionStatusActive
	e.enterQuestion(now)
	return nil
}

// Next advances the current index by one. Valid while active or paused.
func (e *Engine) Next() error {
	return e.GoTo(e.state.CurrentIndex + 1)
}

// Prev moves the current index back by one. Valid while active or paused.
func (e *Engine) Prev() error {
	return e.GoTo(e.state.CurrentIndex - 1)
}

// GoTo jumps to the given question index and marks it visited. An
// out-of-range index is a deliberate no-op, not an error.
func (e *Engine) GoTo(index int) error {
	if err := e.requireNavigable(); err != nil {
		return err
	}
	if index < 0 || index >= len(e.state.Questions) {
		return nil
	}

	now := e.clock()
	e.accrueTime(now)
	e.state.CurrentIndex = index
	e.state.Answers[index].Visited = true
	if e.state.Status == model.SessionStatusActive {
		e.enterQuestion(now)
	}
	return nil
}

// SubmitAnswer records the selected option for the current question.
// Elapsed time is derived from navigation and pause events, never from the
// submit call itself.
func (e *Engine) SubmitAnswer(optionID string) error {
	if err := e.requireNavigable(); err != nil {
		return err
	}

	rec := &e.state.Answers[e.state.CurrentIndex]
	rec.SelectedOption = &optionID
	rec.Visited = true
	return nil
}

// ToggleFlag flips the current question's flag.
func (e *Engine) ToggleFlag() error {
	if err := e.requireNavigable(); err != nil {
		return err
	}
	rec := &e.state.Answers[e.state.CurrentIndex]
	rec.Flagged = !rec.Flagged
	return nil
}

// SetFlag sets the current question's flag explicitly.
func (e *Engine) SetFlag(flagged bool) error {
	if err := e.requireNavigable(); err != nil {
		return err
	}
	e.state.Answers[e.state.CurrentIndex].Flagged = flagged
	return nil
}

// Progress returns answered/flagged/visited counts. Pure read.
func (e *Engine) Progress() model.Progress {
	p := model.Progress{Total: len(e.state.Questions)}
	for _, a := range e.state.Answers {
		if a.SelectedOption != nil {
			p.Answered++
		}
		if a.Flagged {
			p.Flagged++
		}
		if a.Visited {
			p.Visited++
		}
	}
	if p.Total > 0 {
		p.PercentComplete = 100 * float64(p.Answered) / float64(p.Total)
	}
	return p
}

// TimeRemaining returns the whole-exam remaining seconds, computed fresh
// from the single elapsed clock. unbounded is true for untimed sessions.
func (e *Engine) TimeRemaining() (seconds float64, unbounded bool) {
	if e.state.TotalBudgetMs == 0 {
		return 0, true
	}

	remainingMs := float64(e.state.TotalBudgetMs) - float64(e.elapsed().Milliseconds())
	if remainingMs < 0 {
		remainingMs = 0
	}
	return remainingMs / 1000, false
}

// End transitions to FINISHED (terminal) and computes the exam result.
// Persistence of the result and seen-question recording are the session
// manager's job. Calling End twice fails with ErrSessionFinished.
func (e *Engine) End() (*model.ExamResult, error) {
	switch e.state.Status {
	case model.SessionStatusFinished:
		return nil, ErrSessionFinished
	case model.SessionStatusCreated:
		return nil, ErrSessionNotStarted
	}

	now := e.clock()
	e.accrueTime(now)
	if e.state.PauseStart != nil {
		e.state.PausedTotal += now.Sub(*e.state.PauseStart)
		e.state.PauseStart = nil
	}
	e.state.Status = model.SessionStatusFinished

	result := computeResult(e.state, now)
	e.log.Info().
		Float64("score", result.ScorePercentage).
		Int("correct", result.CorrectCount).
		Msg("Session finished")
	return result, nil
}

// requireNavigable gates operations valid only from ACTIVE or PAUSED.
func (e *Engine) requireNavigable() error {
	switch e.state.Status {
	case model.SessionStatusFinished:
		return ErrSessionFinished
	case model.SessionStatusCreated:
		return ErrSessionNotStarted
	}
	return nil
}

// enterQuestion marks the start of time accrual for the current question.
func (e *Engine) enterQuestion(now time.Time) {
	t := now
	e.questionEnteredAt = &t
}

// accrueTime folds the open accrual interval into the current question's
// record and closes it. Safe to call with no open interval.
func (e *Engine) accrueTime(now time.Time) {
	if e.questionEnteredAt == nil {
		return
	}
	idx := e.state.CurrentIndex
	if idx >= 0 && idx < len(e.state.Answers) {
		e.state.Answers[idx].TimeSpentSec += now.Sub(*e.questionEnteredAt).Seconds()
	}
	e.questionEnteredAt = nil
}

// elapsed is the single logical clock: wall time since start minus all
// paused time, including a still-open pause.
func (e *Engine) elapsed() time.Duration {
	if e.state.StartedAt == nil {
		return 0
	}
	now := e.clock()
	elapsed := now.Sub(*e.state.StartedAt) - e.state.PausedTotal
	if e.state.PauseStart != nil {
		elapsed -= now.Sub(*e.state.PauseStart)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}
