package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pavelanni/papergen/internal/config"
	"github.com/pavelanni/papergen/internal/llm"
	"github.com/pavelanni/papergen/internal/model"
)

func goodResponse(n int) string {
	var records []string
	for i := 0; i < n; i++ {
		records = append(records, fmt.Sprintf(`{
  "question_text_en": "Sample question number %d about crystal structures?",
  "option_a_en": "First answer %d",
  "option_b_en": "Second answer %d",
  "option_c_en": "Third answer %d",
  "option_d_en": "Fourth answer %d",
  "correct_answer": "a",
  "explanation": "A sufficiently detailed explanation of why the first answer is correct for question %d.",
  "references": ["Callister, Materials Science, Chapter 3", "https://example.edu/crystals"]
}`, i, i, i, i, i, i))
	}
	return "[" + strings.Join(records, ",") + "]"
}

func testRequest(n int) Request {
	return Request{
		Subject:    "Metallurgical Engineering",
		MainTopic:  "Material Science",
		Subtopic:   "Crystal Structure",
		Difficulty: model.DifficultyEasy,
		Count:      n,
	}
}

func TestGenerateSuccess(t *testing.T) {
	caller := llm.NewMockCaller(goodResponse(1))
	g := New(caller, config.DefaultGeneration())

	questions, err := g.Generate(context.Background(), testRequest(2))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if caller.Calls > 2 {
		t.Errorf("expected at most 2 calls, got %d", caller.Calls)
	}
	for _, q := range questions {
		if q.Difficulty != model.DifficultyEasy {
			t.Errorf("expected Easy difficulty, got %s", q.Difficulty)
		}
		if q.MainTopic != "Material Science" || q.Subtopic != "Crystal Structure" {
			t.Errorf("topic fields not stamped: %+v", q)
		}
		if q.TestSection != "Material Science" {
			t.Errorf("test section should default to main topic, got %q", q.TestSection)
		}
		if q.CorrectAnswer != "A" {
			t.Errorf("correct answer should be upper-cased, got %q", q.CorrectAnswer)
		}
		if q.ID == "" {
			t.Error("question ID not assigned")
		}
	}
	if questions[0].ID == questions[1].ID {
		t.Error("question IDs should be unique")
	}
}

func TestGenerateRetryBudget(t *testing.T) {
	caller := llm.NewMockCaller("this response contains no structured data at all")
	cfg := config.DefaultGeneration()
	g := New(caller, cfg)

	_, err := g.Generate(context.Background(), testRequest(3))
	if err == nil {
		t.Fatal("expected GenerationError")
	}
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}

	wantCalls := 3 * (1 + cfg.MaxValidationRetries)
	if caller.Calls != wantCalls {
		t.Errorf("expected exactly %d attempts, got %d", wantCalls, caller.Calls)
	}
	if ge.Attempts != wantCalls {
		t.Errorf("GenerationError.Attempts = %d, want %d", ge.Attempts, wantCalls)
	}
}

func TestGenerateTransportErrorsSkipped(t *testing.T) {
	caller := llm.NewMockCaller(goodResponse(1))
	caller.Err = errors.New("connection refused")
	g := New(caller, config.DefaultGeneration())

	_, err := g.Generate(context.Background(), testRequest(1))
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError after transport failures, got %v", err)
	}
}

func TestGeneratePartialResultIsNotError(t *testing.T) {
	// First call yields one valid question, the rest are unparseable.
	// Target 3 with retry limit 2 gives 9 attempts; one valid question
	// short of target is a warning, not an error.
	responses := []string{goodResponse(1)}
	for i := 0; i < 10; i++ {
		responses = append(responses, "no json here")
	}
	caller := llm.NewMockCaller(responses...)
	g := New(caller, config.DefaultGeneration())

	questions, err := g.Generate(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("partial result should not error: %v", err)
	}
	if len(questions) != 1 {
		t.Errorf("expected 1 question, got %d", len(questions))
	}
}

func TestGenerateSkipsInvalidRecords(t *testing.T) {
	// One record missing required fields, one failing validation, one good.
	response := `[
		{"question_text_en": "incomplete record"},
		{"question_text_en": "Q?", "option_a_en": "x1", "option_b_en": "x1", "option_c_en": "x2", "option_d_en": "x3",
		 "correct_answer": "A", "explanation": "Duplicate options make this one structurally invalid here."},
		` + strings.TrimPrefix(strings.TrimSuffix(goodResponse(1), "]"), "[") + `
	]`
	caller := llm.NewMockCaller(response)
	g := New(caller, config.DefaultGeneration())

	questions, err := g.Generate(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if !strings.Contains(questions[0].Text, "Sample question") {
		t.Errorf("accepted the wrong record: %q", questions[0].Text)
	}
}

func TestGenerateStrictChecks(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{
			"question_text_en": "A structurally valid question about something?",
			"option_a_en":      "alpha",
			"option_b_en":      "beta",
			"option_c_en":      "gamma",
			"option_d_en":      "delta",
			"correct_answer":   "A",
			"explanation":      "This explanation is comfortably longer than twenty characters.",
		}
	}

	render := func(m map[string]string, refs string) string {
		var sb strings.Builder
		sb.WriteString("[{")
		first := true
		for k, v := range m {
			if !first {
				sb.WriteString(",")
			}
			first = false
			fmt.Fprintf(&sb, "%q: %q", k, v)
		}
		if refs != "" {
			sb.WriteString(`, "references": ` + refs)
		}
		sb.WriteString("}]")
		return sb.String()
	}

	tests := []struct {
		name     string
		response string
		cfg      func(*config.Generation)
		wantOK   bool
	}{
		{
			name:     "missing references rejected",
			response: render(base(), ""),
			wantOK:   false,
		},
		{
			name:     "references not required",
			response: render(base(), ""),
			cfg:      func(c *config.Generation) { c.RequireReferences = false },
			wantOK:   true,
		},
		{
			name:     "string reference coerced to list",
			response: render(base(), `"Single citation as a plain string"`),
			wantOK:   true,
		},
		{
			name: "explanation below configured floor",
			response: func() string {
				m := base()
				m["explanation"] = "Twenty-one characters..."
				return render(m, `["ref one"]`)
			}(),
			cfg:    func(c *config.Generation) { c.MinExplanationLength = 100 },
			wantOK: false,
		},
		{
			name: "one-character option rejected",
			response: func() string {
				m := base()
				m["option_d_en"] = "x"
				return render(m, `["ref one"]`)
			}(),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGeneration()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			g := New(llm.NewMockCaller(tt.response), cfg)
			questions, err := g.Generate(context.Background(), testRequest(1))
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				if len(questions) != 1 {
					t.Fatalf("expected 1 question, got %d", len(questions))
				}
			} else if err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestGenerateExplicitTestSection(t *testing.T) {
	caller := llm.NewMockCaller(goodResponse(1))
	g := New(caller, config.DefaultGeneration())

	req := testRequest(1)
	req.TestSection = "Main Subject"
	questions, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if questions[0].TestSection != "Main Subject" {
		t.Errorf("expected test section 'Main Subject', got %q", questions[0].TestSection)
	}
}
