package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/papergen/internal/config"
	"github.com/pavelanni/papergen/internal/llm/prompts"
	"github.com/pavelanni/papergen/internal/model"
)

// VisionCaller is the injected model-call dependency for multimodal
// generation.
type VisionCaller interface {
	GenerateMultimodal(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// MultimodalGenerator produces diagram-based questions through an injected
// vision model caller.
type MultimodalGenerator struct {
	caller VisionCaller
	inner  Generator
}

// NewMultimodal creates a MultimodalGenerator.
func NewMultimodal(caller VisionCaller, cfg config.Generation) *MultimodalGenerator {
	return &MultimodalGenerator{
		caller: caller,
		inner:  Generator{cfg: cfg},
	}
}

// Questions that never mention the image are answerable from text alone
// and defeat the point of multimodal generation.
var diagramKeywords = []string{
	"shown", "diagram", "figure", "graph", "image", "above",
	"below", "illustrated", "depicted", "displayed", "curve",
	"plot", "chart", "table",
}

// GenerateFromPair produces up to req.Count validated questions from a
// text-image pair. The loop mirrors text generation, with one extra
// acceptance check: the question text must reference the diagram.
func (g *MultimodalGenerator) GenerateFromPair(ctx context.Context, pair model.TextImagePair, req Request) ([]model.Question, error) {
	section := req.TestSection
	if section == "" {
		section = req.MainTopic
	}

	diagramType := prompts.DiagramTypeHint(pair.Text)

	var accepted []model.Question
	attempts := 0
	maxAttempts := req.Count * (1 + g.inner.cfg.MaxValidationRetries)

	for len(accepted) < req.Count && attempts < maxAttempts {
		attempts++
		remaining := req.Count - len(accepted)

		prompt := prompts.BuildMultimodalPrompt(pair.Text, len(pair.Images), req.Subject, req.MainTopic, req.Subtopic, req.Difficulty, remaining, diagramType)

		raw, err := g.caller.GenerateMultimodal(ctx, prompt, pair.Images)
		if err != nil {
			slog.Warn("multimodal attempt failed", "attempt", attempts, "error", err)
			continue
		}

		records, err := ExtractRecords(raw)
		if err != nil {
			slog.Warn("multimodal response parse failed", "attempt", attempts, "error", err)
			continue
		}

		accepted = g.inner.acceptCandidates(accepted, records, req.Count, func(rec map[string]any) (model.Question, error) {
			q, err := questionFromRecord(rec, section, req.MainTopic, req.Subtopic, req.Difficulty)
			if err != nil {
				return model.Question{}, err
			}
			q.HasDiagram = true
			q.SourcePDF = pair.SourcePDF
			return q, nil
		}, requiresDiagram)
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
		slog.Warn("generated fewer multimodal questions than requested",
			"want", req.Count, "got", len(accepted), "attempts", attempts,
			"topic", req.MainTopic, "difficulty", req.Difficulty)
	}
	return accepted, nil
}

func requiresDiagram(q model.Question) error {
	lower := strings.ToLower(q.Text)
	for _, kw := range diagramKeywords {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return fmt.Errorf("question does not reference the diagram or image")
}
