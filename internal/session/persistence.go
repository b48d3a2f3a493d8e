package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/store"
)

// savedSession is the persisted envelope for an in-progress session,
// keyed by session id in the sessions collection.
type savedSession struct {
	UserID  string             `json:"user_id"`
	SavedAt time.Time          `json:"saved_at"`
	State   model.SessionState `json:"state"`
}

// Persistence serializes sessions for auto-save and locates the most
// recent unfinished session for resume. Store failures degrade: saves
// report the error for logging, loads return nil.
type Persistence struct {
	store store.Store
	clock Clock
	log   zerolog.Logger
}

// NewPersistence creates a session persistence manager.
func NewPersistence(st store.Store, clock Clock, log zerolog.Logger) *Persistence {
	if clock == nil {
		clock = time.Now
	}
	return &Persistence{
		store: st,
		clock: clock,
		log:   log.With().Str("component", "session_persistence").Logger(),
	}
}

// AutoSave writes the full session state keyed by session id. Idempotent:
// saving the same session twice overwrites the prior entry.
func (p *Persistence) AutoSave(ctx context.Context, state *model.SessionState) error {
	now := p.clock()
	state.LastSavedAt = &now

	raw, err := json.Marshal(savedSession{
		UserID:  state.UserID,
		SavedAt: now,
		State:   *state,
	})
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}

	if err := p.store.Put(ctx, store.CollectionSessions, state.ID.String(), raw); err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

// LoadMostRecentUnfinished returns the newest non-finished saved session
// for userID, or nil when none exists or the store is unavailable.
func (p *Persistence) LoadMostRecentUnfinished(ctx context.Context, userID string) (*model.SessionState, error) {
	records, err := p.store.GetAll(ctx, store.CollectionSessions)
	if err != nil {
		// Resume degrades to "nothing to resume" when the store is down.
		p.log.Warn().Err(err).Str("user_id", userID).Msg("Resume scan failed, treating as no saved session")
		return nil, nil
	}

	var best *savedSession
	for key, raw := range records {
		var saved savedSession
		if err := json.Unmarshal(raw, &saved); err != nil {
			p.log.Warn().Str("key", key).Err(err).Msg("Skipping malformed saved session")
			continue
		}
		if saved.UserID != userID || !saved.State.Status.Live() {
			continue
		}
		if best == nil || saved.SavedAt.After(best.SavedAt) {
			s := saved
			best = &s
		}
	}
	if best == nil {
		return nil, nil
	}
	return &best.State, nil
}

// DeleteSaved removes the in-progress entry for a session. Called on
// successful End so a finished session can never be resumed.
func (p *Persistence) DeleteSaved(ctx context.Context, sessionID uuid.UUID) error {
	if err := p.store.Delete(ctx, store.CollectionSessions, sessionID.String()); err != nil {
		return fmt.Errorf("delete saved session %s: %w", sessionID, err)
	}
	return nil
}

// SaveResult writes a completed exam result keyed by session id.
func (p *Persistence) SaveResult(ctx context.Context, result *model.ExamResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.SessionID, err)
	}
	if err := p.store.Put(ctx, store.CollectionResults, result.SessionID.String(), raw); err != nil {
		return fmt.Errorf("save result %s: %w", result.SessionID, err)
	}
	return nil
}

// LoadResult returns a completed exam result, or nil when absent.
func (p *Persistence) LoadResult(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	raw, err := p.store.Get(ctx, store.CollectionResults, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", sessionID, err)
	}
	if raw == nil {
		return nil, nil
	}
	var result model.ExamResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", sessionID, err)
	}
	result.Saved = true
	return &result, nil
}
