// Package generator turns model responses into validated questions. The
// generation loop treats every failure mode — transport errors, malformed
// JSON, missing fields, off-spec content — as skip-and-retry, bounded by a
// fixed attempt budget so it cannot loop forever.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/papergen/internal/config"
	"github.com/pavelanni/papergen/internal/llm/prompts"
	"github.com/pavelanni/papergen/internal/model"
)

// TextCaller is the injected model-call dependency for text generation.
type TextCaller interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError reports that a generation cell produced zero valid
// questions after exhausting its retry budget. A short-of-target but
// non-empty result is not an error.
type GenerationError struct {
	MainTopic  string
	Subtopic   string
	Difficulty model.Difficulty
	Attempts   int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("no valid questions for %s / %s (%s) after %d attempts",
		e.MainTopic, e.Subtopic, e.Difficulty, e.Attempts)
}

// Request describes one generation cell: a topic context, a difficulty
// band, and a target count.
type Request struct {
	Subject     string
	MainTopic   string
	Subtopic    string
	Difficulty  model.Difficulty
	Count       int
	TestSection string // defaults to MainTopic
}

// Generator produces validated text-only questions through an injected
// model caller.
type Generator struct {
	caller TextCaller
	cfg    config.Generation
}

// New creates a Generator.
func New(caller TextCaller, cfg config.Generation) *Generator {
	return &Generator{caller: caller, cfg: cfg}
}

// Generate produces up to req.Count validated questions. The attempt budget
// is Count x (1 + MaxValidationRetries); within it, failed attempts and
// rejected candidates are logged and skipped. Fewer questions than
// requested is a warning; zero is a GenerationError.
func (g *Generator) Generate(ctx context.Context, req Request) ([]model.Question, error) {
	section := req.TestSection
	if section == "" {
		section = req.MainTopic
	}

	var accepted []model.Question
	attempts := 0
	maxAttempts := req.Count * (1 + g.cfg.MaxValidationRetries)

	for len(accepted) < req.Count && attempts < maxAttempts {
		attempts++
		remaining := req.Count - len(accepted)

		prompt := prompts.BuildGenerationPrompt(req.Subject, req.MainTopic, req.Subtopic, req.Difficulty, remaining, g.cfg.UseFewShot)

		raw, err := g.caller.Generate(ctx, prompt)
		if err != nil {
			slog.Warn("generation attempt failed", "attempt", attempts, "error", err)
			continue
		}

		records, err := ExtractRecords(raw)
		if err != nil {
			slog.Warn("response parse failed", "attempt", attempts, "error", err)
			continue
		}

		accepted = g.acceptCandidates(accepted, records, req.Count, func(rec map[string]any) (model.Question, error) {
			return questionFromRecord(rec, section, req.MainTopic, req.Subtopic, req.Difficulty)
		}, nil)
	}

	if len(accepted) == 0 {
		return nil, &GenerationError{
			MainTopic:  req.MainTopic,
			Subtopic:   req.Subtopic,
			Difficulty: req.Difficulty,
			Attempts:   attempts,
		}
	}
	if len(accepted) < req.Count {
		slog.Warn("generated fewer questions than requested",
			"want", req.Count, "got", len(accepted), "attempts", attempts,
			"topic", req.MainTopic, "difficulty", req.Difficulty)
	}
	return accepted, nil
}

// acceptCandidates converts raw records into questions up to the remaining
// quota, applying the structural gate, the stricter generation checks, and
// an optional extra check. Rejected candidates are logged and skipped.
func (g *Generator) acceptCandidates(accepted []model.Question, records []map[string]any, target int,
	convert func(map[string]any) (model.Question, error), extra func(model.Question) error) []model.Question {

	for i, rec := range records {
		if len(accepted) >= target {
			break
		}
		q, err := convert(rec)
		if err != nil {
			slog.Warn("question record rejected", "record", i+1, "error", err)
			continue
		}
		if violations := q.Validate(); len(violations) > 0 {
			slog.Warn("question failed validation", "record", i+1, "violations", strings.Join(violations, "; "))
			continue
		}
		if err := g.checkStrict(q); err != nil {
			slog.Warn("question failed generation checks", "record", i+1, "error", err)
			continue
		}
		if extra != nil {
			if err := extra(q); err != nil {
				slog.Warn("question failed generation checks", "record", i+1, "error", err)
				continue
			}
		}
		accepted = append(accepted, q)
	}
	return accepted
}

// checkStrict applies the generation-specific checks on top of the
// structural gate: the configured explanation floor, the reference floor,
// and a minimum option length to catch lazy one-character options.
func (g *Generator) checkStrict(q model.Question) error {
	if len(strings.TrimSpace(q.Explanation)) < g.cfg.MinExplanationLength {
		return fmt.Errorf("explanation too short (%d < %d characters)",
			len(strings.TrimSpace(q.Explanation)), g.cfg.MinExplanationLength)
	}
	if g.cfg.RequireReferences && len(q.References) < g.cfg.MinReferences {
		return fmt.Errorf("not enough references (%d < %d)", len(q.References), g.cfg.MinReferences)
	}
	for letter, opt := range q.Options() {
		if len(strings.TrimSpace(opt)) < 2 {
			return fmt.Errorf("option %s is too short", letter)
		}
	}
	return nil
}

var requiredFields = []string{
	"question_text_en",
	"option_a_en",
	"option_b_en",
	"option_c_en",
	"option_d_en",
	"correct_answer",
	"explanation",
}

// questionFromRecord projects a loosely-typed record into a Question,
// stamping the call context. Required keys are presence-checked here so
// everything past this boundary is statically typed.
func questionFromRecord(rec map[string]any, section, mainTopic, subtopic string, difficulty model.Difficulty) (model.Question, error) {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := rec[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return model.Question{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return model.Question{
		ID:            uuid.NewString(),
		TestSection:   section,
		MainTopic:     mainTopic,
		Subtopic:      subtopic,
		Difficulty:    difficulty,
		Text:          fieldString(rec["question_text_en"]),
		OptionA:       fieldString(rec["option_a_en"]),
		OptionB:       fieldString(rec["option_b_en"]),
		OptionC:       fieldString(rec["option_c_en"]),
		OptionD:       fieldString(rec["option_d_en"]),
		CorrectAnswer: strings.ToUpper(fieldString(rec["correct_answer"])),
		Explanation:   fieldString(rec["explanation"]),
		References:    referenceList(rec["references"]),
		CreatedAt:     time.Now(),
	}, nil
}

// fieldString coerces any record value to a trimmed string.
func fieldString(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}

// referenceList coerces a references field that may arrive as a string, a
// list, or be absent entirely.
func referenceList(v any) []string {
	switch refs := v.(type) {
	case string:
		return []string{strings.TrimSpace(refs)}
	case []any:
		out := make([]string, 0, len(refs))
		for _, r := range refs {
			out = append(out, fieldString(r))
		}
		return out
	}
	return nil
}
