package question

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/store"
)

// Registry tracks which question ids have already been presented to the
// user, per (subject, topic), within the current rotation window. The
// selector clears a topic's set when too few unseen questions remain.
type Registry struct {
	store store.Store
	log   zerolog.Logger
}

// NewRegistry creates a seen-question Registry backed by st.
func NewRegistry(st store.Store, log zerolog.Logger) *Registry {
	return &Registry{
		store: st,
		log:   log.With().Str("component", "seen_registry").Logger(),
	}
}

// seenKey builds the composite record key for a (subject, topic) pair.
func seenKey(subject, topic string) string {
	return subject + ":" + topic
}

// GetSeen returns the set of seen question ids for (subject, topic).
// An absent record yields an empty set.
func (r *Registry) GetSeen(ctx context.Context, subject, topic string) (map[string]struct{}, error) {
	raw, err := r.store.Get(ctx, store.CollectionSeen, seenKey(subject, topic))
	if err != nil {
		return nil, fmt.Errorf("get seen set: %w", err)
	}
	set := make(map[string]struct{})
	if raw == nil {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode seen set %s:%s: %w", subject, topic, err)
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// AddSeen unions ids into the (subject, topic) seen set.
func (r *Registry) AddSeen(ctx context.Context, subject, topic string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	set, err := r.GetSeen(ctx, subject, topic)
	if err != nil {
		return err
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}

	// Persist sorted for a stable record and deterministic tests.
	merged := make([]string, 0, len(set))
	for id := range set {
		merged = append(merged, id)
	}
	sort.Strings(merged)

	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode seen set: %w", err)
	}
	if err := r.store.Put(ctx, store.CollectionSeen, seenKey(subject, topic), raw); err != nil {
		return fmt.Errorf("store seen set: %w", err)
	}
	return nil
}

// ClearSeen removes the (subject, topic) seen set entirely.
func (r *Registry) ClearSeen(ctx context.Context, subject, topic string) error {
	if err := r.store.Delete(ctx, store.CollectionSeen, seenKey(subject, topic)); err != nil {
		return fmt.Errorf("clear seen set: %w", err)
	}
	r.log.Info().Str("subject", subject).Str("topic", topic).Msg("Seen set cleared")
	return nil
}
