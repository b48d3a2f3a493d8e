package model

// Difficulty is the ordinal difficulty of a question, 1 (easiest) to 5.
type Difficulty int

const (
	DifficultyBasic    Difficulty = 1
	DifficultyEasy     Difficulty = 2
	DifficultyMedium   Difficulty = 3
	DifficultyHard     Difficulty = 4
	DifficultyVeryHard Difficulty = 5
)

// Valid reports whether d is within the supported 1..5 range.
func (d Difficulty) Valid() bool {
	return d >= DifficultyBasic && d <= DifficultyVeryHard
}

// Question represents a single multiple-choice question from the bank.
type Question struct {
	ID            string     `json:"id"`
	SubjectID     string     `json:"subject_id"`
	TopicID       string     `json:"topic_id"`
	Difficulty    Difficulty `json:"difficulty"`
	Prompt        string     `json:"prompt"`
	Options       []Option   `json:"options"`
	CorrectOption string     `json:"correct_option"`
	Explanation   string     `json:"explanation,omitempty"`
	ImageRef      string     `json:"image_ref,omitempty"`
}

// Option is one selectable answer choice.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
