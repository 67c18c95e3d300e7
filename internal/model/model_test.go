package model

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validQuestion() Question {
	return Question{
		ID:            uuid.NewString(),
		TestSection:   "Main Subject",
		MainTopic:     "Material Science",
		Subtopic:      "Crystal Structure",
		Difficulty:    DifficultyEasy,
		Text:          "What is the coordination number in an FCC crystal structure?",
		OptionA:       "12",
		OptionB:       "8",
		OptionC:       "6",
		OptionD:       "4",
		CorrectAnswer: "A",
		Explanation:   "In a face-centered cubic structure each atom has 12 nearest neighbors.",
		References:    []string{"Callister, Materials Science and Engineering, Chapter 3"},
		CreatedAt:     time.Now(),
	}
}

func TestValidateValidQuestion(t *testing.T) {
	if errs := validQuestion().Validate(); len(errs) != 0 {
		t.Errorf("expected no violations, got %v", errs)
	}
	if !validQuestion().IsValid() {
		t.Error("IsValid() = false for a valid question")
	}
}

func TestValidateSingleViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Question)
		want   string
	}{
		{"empty question text", func(q *Question) { q.Text = "  " }, "question text is empty"},
		{"empty option A", func(q *Question) { q.OptionA = "" }, "option A is empty"},
		{"empty option B", func(q *Question) { q.OptionB = "" }, "option B is empty"},
		{"empty option C", func(q *Question) { q.OptionC = "" }, "option C is empty"},
		{"empty option D", func(q *Question) { q.OptionD = "" }, "option D is empty"},
		{"bad answer letter", func(q *Question) { q.CorrectAnswer = "E" }, "correct answer must be"},
		{"lowercase answer letter", func(q *Question) { q.CorrectAnswer = "a" }, "correct answer must be"},
		{"empty explanation", func(q *Question) { q.Explanation = "" }, "explanation is empty"},
		{"short explanation", func(q *Question) { q.Explanation = "too short" }, "explanation is too short"},
		{"duplicate options", func(q *Question) { q.OptionB = " 12 " }, "options contain duplicates"},
		{"empty test section", func(q *Question) { q.TestSection = "" }, "test section is empty"},
		{"empty main topic", func(q *Question) { q.MainTopic = "" }, "main topic is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			errs := q.Validate()
			if len(errs) != 1 {
				t.Fatalf("expected exactly 1 violation, got %d: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0], tt.want) {
				t.Errorf("violation %q does not mention %q", errs[0], tt.want)
			}
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	q := validQuestion()
	q.OptionA = ""
	q.CorrectAnswer = "X"
	q.Explanation = ""
	errs := q.Validate()
	if len(errs) != 3 {
		t.Errorf("expected 3 violations, got %d: %v", len(errs), errs)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"Easy", DifficultyEasy, false},
		{"easy", DifficultyEasy, false},
		{" MEDIUM ", DifficultyMedium, false},
		{"hard", DifficultyHard, false},
		{"impossible", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDifficulty(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPaperValidate(t *testing.T) {
	t.Run("valid paper", func(t *testing.T) {
		p := Paper{
			ID:        uuid.NewString(),
			Name:      "Sample Exam",
			Subject:   "Metallurgical Engineering",
			Questions: []Question{validQuestion(), validQuestion()},
			CreatedAt: time.Now(),
		}
		if errs := p.Validate(); len(errs) != 0 {
			t.Errorf("expected no violations, got %v", errs)
		}
	})

	t.Run("empty paper", func(t *testing.T) {
		p := Paper{ID: uuid.NewString(), Name: "Empty"}
		errs := p.Validate()
		if len(errs) != 1 || !strings.Contains(errs[0], "no questions") {
			t.Errorf("expected single 'no questions' violation, got %v", errs)
		}
	})

	t.Run("duplicate question IDs", func(t *testing.T) {
		q1 := validQuestion()
		q2 := validQuestion()
		q2.ID = q1.ID
		p := Paper{ID: uuid.NewString(), Questions: []Question{q1, q2}}
		found := false
		for _, v := range p.Validate() {
			if strings.Contains(v, "duplicate question IDs") {
				found = true
			}
		}
		if !found {
			t.Error("expected duplicate question ID violation")
		}
	})

	t.Run("invalid question reported with index", func(t *testing.T) {
		q := validQuestion()
		q.OptionA = ""
		p := Paper{ID: uuid.NewString(), Questions: []Question{validQuestion(), q}}
		found := false
		for _, v := range p.Validate() {
			if strings.Contains(v, "question 2 invalid") {
				found = true
			}
		}
		if !found {
			t.Error("expected 'question 2 invalid' violation")
		}
	})
}

func TestOptions(t *testing.T) {
	q := validQuestion()
	opts := q.Options()
	if opts["A"] != "12" || opts["D"] != "4" {
		t.Errorf("unexpected options map: %v", opts)
	}
}
