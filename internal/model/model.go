package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists all levels in the order papers are assembled:
// Easy first, Hard last.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty converts a label into a Difficulty. Labels are matched
// case-insensitively; unrecognized labels are rejected so bad configuration
// fails at load time rather than at generation time.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want Easy, Medium, or Hard)", s)
}

// MinExplanationLength is the structural floor for explanation length.
// The generation layer may enforce a stricter, configurable minimum.
const MinExplanationLength = 20

// Question is a complete MCQ with metadata and content.
//
// The JSON field names match the record format the model is asked to
// produce, so a raw record and a stored question share one vocabulary.
type Question struct {
	ID          string     `json:"question_id"`
	TestSection string     `json:"test_section"`
	MainTopic   string     `json:"main_topic"`
	Subtopic    string     `json:"subtopic"`
	Difficulty  Difficulty `json:"difficulty"`

	Text          string   `json:"question_text_en"`
	OptionA       string   `json:"option_a_en"`
	OptionB       string   `json:"option_b_en"`
	OptionC       string   `json:"option_c_en"`
	OptionD       string   `json:"option_d_en"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	References    []string `json:"references"`

	CreatedAt  time.Time `json:"created_at"`
	SourcePDF  string    `json:"source_pdf,omitempty"`
	HasDiagram bool      `json:"has_diagram"`
	Tags       []string  `json:"tags,omitempty"`
}

// Options returns the four options keyed by answer letter.
func (q Question) Options() map[string]string {
	return map[string]string{
		"A": q.OptionA,
		"B": q.OptionB,
		"C": q.OptionC,
		"D": q.OptionD,
	}
}

// Validate checks the question's structural invariants and returns every
// violation found. An empty slice means the question is valid. All checks
// run independently; nothing short-circuits.
func (q Question) Validate() []string {
	var violations []string

	if strings.TrimSpace(q.Text) == "" {
		violations = append(violations, "question text is empty")
	}

	if strings.TrimSpace(q.OptionA) == "" {
		violations = append(violations, "option A is empty")
	}
	if strings.TrimSpace(q.OptionB) == "" {
		violations = append(violations, "option B is empty")
	}
	if strings.TrimSpace(q.OptionC) == "" {
		violations = append(violations, "option C is empty")
	}
	if strings.TrimSpace(q.OptionD) == "" {
		violations = append(violations, "option D is empty")
	}

	switch q.CorrectAnswer {
	case "A", "B", "C", "D":
	default:
		violations = append(violations, fmt.Sprintf("correct answer must be A, B, C, or D (got %q)", q.CorrectAnswer))
	}

	explanation := strings.TrimSpace(q.Explanation)
	if explanation == "" {
		violations = append(violations, "explanation is empty")
	} else if len(explanation) < MinExplanationLength {
		violations = append(violations, fmt.Sprintf("explanation is too short (< %d characters)", MinExplanationLength))
	}

	seen := map[string]bool{}
	duplicate := false
	for _, opt := range []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD} {
		key := strings.ToLower(strings.TrimSpace(opt))
		if seen[key] {
			duplicate = true
		}
		seen[key] = true
	}
	if duplicate {
		violations = append(violations, "options contain duplicates")
	}

	if strings.TrimSpace(q.TestSection) == "" {
		violations = append(violations, "test section is empty")
	}
	if strings.TrimSpace(q.MainTopic) == "" {
		violations = append(violations, "main topic is empty")
	}

	return violations
}

// IsValid reports whether the question passes all structural checks.
func (q Question) IsValid() bool {
	return len(q.Validate()) == 0
}

// TopicSpec names one (main topic, subtopic) pair a section draws from.
type TopicSpec struct {
	MainTopic string `json:"main_topic" yaml:"main_topic"`
	Subtopic  string `json:"subtopic" yaml:"subtopic"`
}

// SectionSpec configures one section of a paper.
type SectionSpec struct {
	Name          string             `json:"name"`
	QuestionCount int                `json:"question_count"`
	Distribution  map[Difficulty]int `json:"difficulty_distribution"`
	Topics        []TopicSpec        `json:"topics"`
}

// PaperConfig is the top-level paper request. It is not mutated after
// construction.
type PaperConfig struct {
	Name    string `json:"paper_name"`
	Subject string `json:"subject"`
}

// Paper is an assembled exam paper. It is immutable once built.
type Paper struct {
	ID        string     `json:"paper_id"`
	Name      string     `json:"paper_name"`
	Subject   string     `json:"subject"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks paper-level invariants: a non-empty question list, no
// duplicate question IDs, and every question structurally valid. Violations
// are advisory at this level; the caller decides what to do with them.
func (p Paper) Validate() []string {
	var violations []string

	if len(p.Questions) == 0 {
		violations = append(violations, "paper has no questions")
	}

	seen := map[string]bool{}
	for _, q := range p.Questions {
		if seen[q.ID] {
			violations = append(violations, "paper contains duplicate question IDs")
			break
		}
		seen[q.ID] = true
	}

	for i, q := range p.Questions {
		if errs := q.Validate(); len(errs) > 0 {
			violations = append(violations, fmt.Sprintf("question %d invalid: %s", i+1, strings.Join(errs, ", ")))
		}
	}

	return violations
}

// Summary returns the listing view of the paper.
func (p Paper) Summary() PaperSummary {
	return PaperSummary{
		ID:            p.ID,
		Name:          p.Name,
		Subject:       p.Subject,
		QuestionCount: len(p.Questions),
		CreatedAt:     p.CreatedAt,
	}
}

// PaperSummary is the listing view of a stored paper.
type PaperSummary struct {
	ID            string    `json:"paper_id"`
	Name          string    `json:"paper_name"`
	Subject       string    `json:"subject"`
	QuestionCount int       `json:"total_questions"`
	CreatedAt     time.Time `json:"created_at"`
}

// TextImagePair is a text context with one or more associated images,
// produced by an upstream extractor. The pipeline treats it as opaque
// input for multimodal generation.
type TextImagePair struct {
	Text       string
	Images     [][]byte
	PageNumber int
	SourcePDF  string
}
