// Package selector chooses the ordered question list for a new session:
// subject/topic/difficulty filtering, anti-repetition against the seen
// registry, difficulty-balanced sampling, and a final presentation shuffle.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/events"
	"github.com/prepkit/prepkit-backend/internal/model"
)

// ErrNoQuestionsAvailable means the candidate pool is empty after
// filtering. Fatal to session creation.
var ErrNoQuestionsAvailable = errors.New("no questions available for configuration")

// mixedDistribution is the canonical per-level share used when balancing a
// mixed-difficulty selection: 20/30/25/15/10 across levels 1..5.
var mixedDistribution = map[model.Difficulty]float64{
	model.DifficultyBasic:    0.20,
	model.DifficultyEasy:     0.30,
	model.DifficultyMedium:   0.25,
	model.DifficultyHard:     0.15,
	model.DifficultyVeryHard: 0.10,
}

// SeenRegistry is the slice of the seen-question registry the selector
// depends on.
type SeenRegistry interface {
	GetSeen(ctx context.Context, subject, topic string) (map[string]struct{}, error)
	ClearSeen(ctx context.Context, subject, topic string) error
}

// Selector samples session question lists. Randomness is injected so tests
// can run deterministically.
type Selector struct {
	rng *rand.Rand
	log zerolog.Logger
	bus *events.Bus
}

// New creates a Selector. A nil source gets a time-seeded one.
func New(source rand.Source, log zerolog.Logger, bus *events.Bus) *Selector {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{
		rng: rand.New(source),
		log: log.With().Str("component", "selector").Logger(),
		bus: bus,
	}
}

// Select returns the ordered question list for config, drawn from pool and
// honoring the seen registry. The result length is
// min(config.QuestionCount, filtered pool size) and contains no duplicate
// ids. When fewer unseen questions remain than requested, the seen sets of
// every topic in the selection are cleared (rotation reset) and the draw
// uses the full pool.
func (s *Selector) Select(ctx context.Context, config model.ExamConfiguration, pool []model.Question, registry SeenRegistry) ([]model.Question, error) {
	candidates := dedupe(filterPool(config, pool))
	if len(candidates) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	count := config.QuestionCount
	if count > len(candidates) {
		s.log.Warn().
			Int("requested", count).
			Int("pool", len(candidates)).
			Str("subject", config.Subject).
			Msg("Requested count exceeds pool, clamping")
		count = len(candidates)
	}

	unseen, err := s.partitionUnseen(ctx, config.Subject, candidates, registry)
	if err != nil {
		return nil, err
	}

	drawPool := unseen
	if len(unseen) < count {
		// Rotation restart: too few unseen questions remain, so repetition
		// avoidance is reset for every topic this selection covers.
		if err := s.resetRotation(ctx, config, candidates, registry); err != nil {
			return nil, err
		}
		drawPool = candidates
	}

	var selected []model.Question
	if config.Difficulty == model.DifficultyMixed && config.Balanced && count < len(drawPool) {
		selected = s.balancedSample(drawPool, count)
	} else {
		selected = s.sample(drawPool, count)
	}

	// Presentation order must not leak selection order.
	s.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	return selected, nil
}

// filterPool keeps only questions matching the configured subject, topics
// and difficulty levels.
func filterPool(config model.ExamConfiguration, pool []model.Question) []model.Question {
	topicSet := make(map[string]struct{}, len(config.Topics))
	for _, t := range config.Topics {
		topicSet[t] = struct{}{}
	}
	allTopics := config.AllTopics()

	levelSet := make(map[model.Difficulty]struct{})
	for _, l := range config.Difficulty.Levels() {
		levelSet[l] = struct{}{}
	}

	var out []model.Question
	for _, q := range pool {
		if q.SubjectID != config.Subject {
			continue
		}
		if !allTopics {
			if _, ok := topicSet[q.TopicID]; !ok {
				continue
			}
		}
		if _, ok := levelSet[q.Difficulty]; !ok {
			continue
		}
		out = append(out, q)
	}
	return out
}

// dedupe removes duplicate question ids, keeping first occurrence.
func dedupe(pool []model.Question) []model.Question {
	seen := make(map[string]struct{}, len(pool))
	out := pool[:0:0]
	for _, q := range pool {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// partitionUnseen returns the subset of candidates not yet recorded in the
// registry for their own topic.
func (s *Selector) partitionUnseen(ctx context.Context, subject string, candidates []model.Question, registry SeenRegistry) ([]model.Question, error) {
	seenByTopic := make(map[string]map[string]struct{})

	var unseen []model.Question
	for _, q := range candidates {
		set, ok := seenByTopic[q.TopicID]
		if !ok {
			var err error
			set, err = registry.GetSeen(ctx, subject, q.TopicID)
			if err != nil {
				return nil, fmt.Errorf("partition unseen: %w", err)
			}
			seenByTopic[q.TopicID] = set
		}
		if _, isSeen := set[q.ID]; !isSeen {
			unseen = append(unseen, q)
		}
	}
	return unseen, nil
}

// resetRotation clears the seen sets for every topic represented in this
// selection and publishes an observable rotation_reset event.
func (s *Selector) resetRotation(ctx context.Context, config model.ExamConfiguration, candidates []model.Question, registry SeenRegistry) error {
	topics := config.Topics
	if config.AllTopics() {
		topicSet := make(map[string]struct{})
		topics = topics[:0:0]
		for _, q := range candidates {
			if _, ok := topicSet[q.TopicID]; !ok {
				topicSet[q.TopicID] = struct{}{}
				topics = append(topics, q.TopicID)
			}
		}
	}

	for _, topic := range topics {
		if err := registry.ClearSeen(ctx, config.Subject, topic); err != nil {
			return fmt.Errorf("rotation reset %s:%s: %w", config.Subject, topic, err)
		}
	}

	s.log.Warn().
		Str("subject", config.Subject).
		Strs("topics", topics).
		Msg("Rotation reset: seen sets cleared")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type: events.TypeRotationReset,
			Fields: map[string]any{
				"subject": config.Subject,
				"topics":  topics,
			},
		})
	}
	return nil
}

// balancedSample draws count questions honoring mixedDistribution per
// difficulty level, filling bucket shortfalls uniformly from the leftover
// pool.
func (s *Selector) balancedSample(pool []model.Question, count int) []model.Question {
	buckets := make(map[model.Difficulty][]model.Question)
	for _, q := range pool {
		buckets[q.Difficulty] = append(buckets[q.Difficulty], q)
	}

	targets := bucketTargets(count)

	picked := make(map[string]struct{}, count)
	var selected []model.Question
	for level := model.DifficultyBasic; level <= model.DifficultyVeryHard; level++ {
		want := targets[level]
		bucket := buckets[level]
		if want > len(bucket) {
			want = len(bucket)
		}
		for _, q := range s.sample(bucket, want) {
			picked[q.ID] = struct{}{}
			selected = append(selected, q)
		}
	}

	// Bucket shortfalls: top up uniformly at random from unused questions.
	if shortfall := count - len(selected); shortfall > 0 {
		var remaining []model.Question
		for _, q := range pool {
			if _, used := picked[q.ID]; !used {
				remaining = append(remaining, q)
			}
		}
		selected = append(selected, s.sample(remaining, shortfall)...)
	}

	return selected
}

// bucketTargets converts mixedDistribution into integer per-level counts
// summing exactly to count. Rounding drift lands on the largest bucket.
func bucketTargets(count int) map[model.Difficulty]int {
	targets := make(map[model.Difficulty]int, len(mixedDistribution))
	sum := 0
	largest := model.DifficultyBasic
	for level := model.DifficultyBasic; level <= model.DifficultyVeryHard; level++ {
		n := int(math.Round(mixedDistribution[level] * float64(count)))
		targets[level] = n
		sum += n
		if mixedDistribution[level] > mixedDistribution[largest] {
			largest = level
		}
	}

	if drift := count - sum; drift != 0 {
		targets[largest] += drift
		if targets[largest] < 0 {
			targets[largest] = 0
		}
	}
	return targets
}

// sample draws n questions from pool without replacement. n >= len(pool)
// yields the whole pool (copied).
func (s *Selector) sample(pool []model.Question, n int) []model.Question {
	if n >= len(pool) {
		out := make([]model.Question, len(pool))
		copy(out, pool)
		return out
	}
	out := make([]model.Question, 0, n)
	for _, idx := range s.rng.Perm(len(pool))[:n] {
		out = append(out, pool[idx])
	}
	return out
}
