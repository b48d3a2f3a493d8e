package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/events"
	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/question"
	"github.com/prepkit/prepkit-backend/internal/selector"
)

var (
	// ErrInvalidConfiguration means the exam configuration is missing or
	// inconsistent. Nothing is mutated.
	ErrInvalidConfiguration = errors.New("invalid exam configuration")
	// ErrNoActiveSession means the user has no live session in this
	// process; resume from storage or create a new one.
	ErrNoActiveSession = errors.New("no active session")
)

// Manager owns the live sessions of this process and enforces at most one
// recoverable in-progress session per user. All engine access is
// serialized through the manager.
type Manager struct {
	source   *question.Source
	registry *question.Registry
	selector *selector.Selector
	persist  *Persistence
	bus      *events.Bus
	clock    Clock
	log      zerolog.Logger

	mu   sync.Mutex
	live map[string]*Engine
}

// NewManager wires the session manager. A nil clock gets time.Now.
func NewManager(
	source *question.Source,
	registry *question.Registry,
	sel *selector.Selector,
	persist *Persistence,
	bus *events.Bus,
	clock Clock,
	log zerolog.Logger,
) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		source:   source,
		registry: registry,
		selector: sel,
		persist:  persist,
		bus:      bus,
		clock:    clock,
		log:      log.With().Str("component", "session_manager").Logger(),
		live:     make(map[string]*Engine),
	}
}

// CreateSession selects questions for config and builds a new CREATED
// session for userID. An existing live session is auto-saved best-effort
// and discarded; its saved entry is dropped once the new session is
// durably saved, so resume never resurrects a replaced session.
func (m *Manager) CreateSession(ctx context.Context, config model.ExamConfiguration, userID string) (*model.SessionState, error) {
	config = normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var replaced uuid.UUID
	if prev, ok := m.live[userID]; ok && prev.State().Status.Live() {
		if err := m.persist.AutoSave(ctx, prev.State()); err != nil {
			m.log.Warn().Err(err).
				Str("user_id", userID).
				Str("session_id", prev.State().ID.String()).
				Msg("Best-effort save of replaced session failed")
		}
		replaced = prev.State().ID
		delete(m.live, userID)
	}

	pool, err := m.source.QueryQuestions(ctx, question.Filter{
		Subject:          config.Subject,
		Topics:           config.Topics,
		DifficultyLevels: config.Difficulty.Levels(),
	})
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	selected, err := m.selector.Select(ctx, config, pool, m.registry)
	if err != nil {
		return nil, err
	}

	state := &model.SessionState{
		ID:            uuid.New(),
		UserID:        userID,
		Config:        config,
		Questions:     selected,
		CurrentIndex:  0,
		Answers:       make([]model.AnswerRecord, len(selected)),
		Status:        model.SessionStatusCreated,
		TotalBudgetMs: TotalBudget(config, selected).Milliseconds(),
		CreatedAt:     m.clock(),
	}

	eng := NewEngine(state, m.clock, m.log)
	m.live[userID] = eng

	if err := m.persist.AutoSave(ctx, state); err != nil {
		m.log.Warn().Err(err).Str("session_id", state.ID.String()).Msg("Initial auto-save failed")
	} else if replaced != uuid.Nil {
		// The replaced session stays resumable only until the new one is
		// durably saved; otherwise ending the new session would surface the
		// old save as the newest unfinished one.
		if err := m.persist.DeleteSaved(ctx, replaced); err != nil {
			m.log.Warn().Err(err).Str("session_id", replaced.String()).Msg("Could not delete replaced session save")
		}
	}

	m.publish(events.TypeSessionCreated, state, map[string]any{
		"subject":   config.Subject,
		"questions": len(selected),
	})
	return state, nil
}

// ResumeFromStorage rehydrates the user's most recent unfinished session.
// Idempotent: an already-live session is returned as is. Returns nil when
// nothing is resumable. A session saved while ACTIVE comes back PAUSED
// with the pause anchored at the save timestamp, so time spent offline
// never counts against the budget.
func (m *Manager) ResumeFromStorage(ctx context.Context, userID string) (*model.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eng, ok := m.live[userID]; ok && eng.State().Status.Live() {
		return eng.State(), nil
	}

	state, err := m.persist.LoadMostRecentUnfinished(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	if state.Status == model.SessionStatusActive {
		pauseStart := m.clock()
		if state.LastSavedAt != nil {
			pauseStart = *state.LastSavedAt
		}
		state.Status = model.SessionStatusPaused
		state.PauseStart = &pauseStart
	}

	m.live[userID] = NewEngine(state, m.clock, m.log)
	m.publish(events.TypeSessionResumed, state, nil)
	return state, nil
}

// WithEngine runs fn against the user's live engine under the manager
// lock. Returns ErrNoActiveSession when the user has none.
func (m *Manager) WithEngine(userID string, fn func(*Engine) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	eng, ok := m.live[userID]
	if !ok {
		return ErrNoActiveSession
	}
	return fn(eng)
}

// End finishes the user's session: computes the result, persists it,
// records every presented question as seen under its own topic, and drops
// the in-progress save. The in-memory result is authoritative: a failed
// result write is returned with Saved=false instead of an error.
func (m *Manager) End(ctx context.Context, userID string) (*model.ExamResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	eng, ok := m.live[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}

	result, err := eng.End()
	if err != nil {
		return nil, err
	}
	state := eng.State()
	delete(m.live, userID)

	if err := m.persist.SaveResult(ctx, result); err != nil {
		m.log.Error().Err(err).Str("session_id", state.ID.String()).Msg("Result persistence failed, returning unsaved result")
	} else {
		result.Saved = true
	}

	// Record seen questions keyed by each question's own topic, so a
	// cross-topic exam registers per question, not per configured topic.
	idsByTopic := make(map[string][]string)
	for _, q := range state.Questions {
		idsByTopic[q.TopicID] = append(idsByTopic[q.TopicID], q.ID)
	}
	for topic, ids := range idsByTopic {
		if err := m.registry.AddSeen(ctx, state.Config.Subject, topic, ids); err != nil {
			m.log.Error().Err(err).Str("topic", topic).Msg("Seen-question recording failed")
		}
	}

	if err := m.persist.DeleteSaved(ctx, state.ID); err != nil {
		m.log.Warn().Err(err).Str("session_id", state.ID.String()).Msg("Could not delete in-progress save")
	}

	m.publish(events.TypeSessionFinished, state, map[string]any{
		"score":   result.ScorePercentage,
		"correct": result.CorrectCount,
		"total":   result.TotalQuestions,
	})
	return result, nil
}

// Result loads a persisted exam result by session id.
func (m *Manager) Result(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	return m.persist.LoadResult(ctx, sessionID)
}

// AutoSaveAll persists every live session. Called by the autosave worker;
// failures are logged per session and never interrupt the exams. Saving a
// paused session advances no clock.
func (m *Manager) AutoSaveAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, eng := range m.live {
		state := eng.State()
		if !state.Status.Live() {
			continue
		}
		if err := m.persist.AutoSave(ctx, state); err != nil {
			m.log.Warn().Err(err).
				Str("user_id", userID).
				Str("session_id", state.ID.String()).
				Msg("Auto-save failed")
			continue
		}
		m.publish(events.TypeAutosave, state, nil)
	}
}

func (m *Manager) publish(t events.Type, state *model.SessionState, fields map[string]any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.Event{
		Type:      t,
		UserID:    state.UserID,
		SessionID: state.ID.String(),
		Fields:    fields,
	})
}

// normalizeConfig fills defaulted fields: mixed difficulty, adaptive
// timing, balancing on for mixed mode.
func normalizeConfig(config model.ExamConfiguration) model.ExamConfiguration {
	if config.Difficulty == "" {
		config.Difficulty = model.DifficultyMixed
	}
	if config.Difficulty == model.DifficultyMixed {
		config.Balanced = true
	}
	if config.TimingMode == "" {
		config.TimingMode = model.TimingAdaptive
	}
	return config
}

func validateConfig(config model.ExamConfiguration) error {
	switch {
	case config.Subject == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidConfiguration)
	case len(config.Topics) == 0:
		return fmt.Errorf("%w: at least one topic is required", ErrInvalidConfiguration)
	case config.QuestionCount < 1:
		return fmt.Errorf("%w: question count must be positive", ErrInvalidConfiguration)
	case config.TimingMode == model.TimingFixed && config.FixedSecondsPerQ < 1:
		return fmt.Errorf("%w: fixed timing requires seconds per question", ErrInvalidConfiguration)
	}
	return nil
}
