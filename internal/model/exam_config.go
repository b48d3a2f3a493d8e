package model

// TimingMode controls how the whole-exam time budget is derived.
type TimingMode string

const (
	// TimingAdaptive derives each question's seconds from its difficulty.
	TimingAdaptive TimingMode = "adaptive"
	// TimingFixed uses one configured seconds value for every question.
	TimingFixed TimingMode = "fixed"
	// TimingNone disables all time limits.
	TimingNone TimingMode = "none"
)

// DifficultyMode selects which difficulty levels a session draws from.
// "mixed" enables balanced sampling across all levels; a named level
// restricts the pool to that level ("expert" spans levels 4 and 5).
type DifficultyMode string

const (
	DifficultyMixed      DifficultyMode = "mixed"
	DifficultyModeBasic  DifficultyMode = "basic"
	DifficultyModeEasy   DifficultyMode = "easy"
	DifficultyModeMedium DifficultyMode = "medium"
	DifficultyModeHard   DifficultyMode = "hard"
	DifficultyModeExpert DifficultyMode = "expert"
)

// Levels maps a DifficultyMode to the concrete difficulty levels it covers.
// The expert bucket merges the two hardest internal levels.
func (m DifficultyMode) Levels() []Difficulty {
	switch m {
	case DifficultyModeBasic:
		return []Difficulty{DifficultyBasic}
	case DifficultyModeEasy:
		return []Difficulty{DifficultyEasy}
	case DifficultyModeMedium:
		return []Difficulty{DifficultyMedium}
	case DifficultyModeHard:
		return []Difficulty{DifficultyHard}
	case DifficultyModeExpert:
		return []Difficulty{DifficultyHard, DifficultyVeryHard}
	default:
		return []Difficulty{DifficultyBasic, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard}
	}
}

// TopicAll is the wildcard topic selector.
const TopicAll = "all"

// ExamConfiguration describes one exam run. Immutable once a session is
// created from it.
type ExamConfiguration struct {
	Subject          string         `json:"subject" binding:"required,min=1,max=64"`
	Topics           []string       `json:"topics" binding:"required,min=1,dive,min=1,max=64"`
	QuestionCount    int            `json:"question_count" binding:"required,min=1,max=200"`
	Difficulty       DifficultyMode `json:"difficulty" binding:"omitempty,oneof=mixed basic easy medium hard expert"`
	TimingMode       TimingMode     `json:"timing_mode" binding:"omitempty,oneof=adaptive fixed none"`
	FixedSecondsPerQ int            `json:"fixed_seconds_per_question,omitempty" binding:"omitempty,min=5,max=600"`
	Balanced         bool           `json:"balanced"`
}

// AllTopics reports whether the configuration selects every topic of the
// subject rather than an explicit list.
func (c ExamConfiguration) AllTopics() bool {
	return len(c.Topics) == 1 && c.Topics[0] == TopicAll
}
