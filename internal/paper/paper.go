// Package paper assembles exam papers: it partitions each section's
// question count across difficulty bands and topics, drives the generators
// cell by cell, and registers the finished paper with the question bank.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/papergen/internal/bank"
	"github.com/pavelanni/papergen/internal/generator"
	"github.com/pavelanni/papergen/internal/model"
)

// Builder builds papers. The multimodal generator is optional; without it
// every cell uses text-only generation.
type Builder struct {
	gen        *generator.Generator
	multimodal *generator.MultimodalGenerator
	bank       *bank.Bank
}

// NewBuilder creates a Builder. multimodal may be nil.
func NewBuilder(gen *generator.Generator, multimodal *generator.MultimodalGenerator, b *bank.Bank) *Builder {
	return &Builder{gen: gen, multimodal: multimodal, bank: b}
}

// BuildPaper builds a complete paper from the configuration, running
// sections in configured order. Paper-level validation failures are logged
// but do not block the paper: partial delivery beats hard failure once
// generation money has been spent. The finished question list is always
// registered with the bank.
func (b *Builder) BuildPaper(ctx context.Context, cfg model.PaperConfig, sections []model.SectionSpec, pairs []model.TextImagePair) (*model.Paper, error) {
	slog.Info("building paper", "name", cfg.Name, "subject", cfg.Subject, "sections", len(sections))

	var all []model.Question
	for _, sec := range sections {
		questions, err := b.buildSection(ctx, sec, cfg.Subject, pairs)
		if err != nil {
			return nil, fmt.Errorf("build section %q: %w", sec.Name, err)
		}
		slog.Info("section complete", "section", sec.Name, "questions", len(questions))
		all = append(all, questions...)
	}

	p := &model.Paper{
		ID:        uuid.NewString(),
		Name:      cfg.Name,
		Subject:   cfg.Subject,
		Questions: all,
		CreatedAt: time.Now(),
	}

	if violations := p.Validate(); len(violations) > 0 {
		for _, v := range violations {
			slog.Warn("paper validation", "paper_id", p.ID, "violation", v)
		}
	}

	if err := b.bank.Add(p.Questions); err != nil {
		return nil, fmt.Errorf("register questions with bank: %w", err)
	}

	slog.Info("paper complete", "paper_id", p.ID, "questions", len(p.Questions), "bank_size", b.bank.Size())
	return p, nil
}

// buildSection generates all questions for one section. Difficulty bands
// run in fixed Easy/Medium/Hard order; a band's count is split across the
// section's topics with earlier topics absorbing the remainder.
func (b *Builder) buildSection(ctx context.Context, sec model.SectionSpec, subject string, pairs []model.TextImagePair) ([]model.Question, error) {
	if len(sec.Topics) == 0 {
		slog.Warn("section has no topics, skipping", "section", sec.Name)
		return nil, nil
	}

	var questions []model.Question
	for _, difficulty := range model.Difficulties {
		count := sec.Distribution[difficulty]
		if count == 0 {
			continue
		}

		perTopic := splitAcrossTopics(count, len(sec.Topics))
		for i, topic := range sec.Topics {
			if perTopic[i] == 0 {
				continue
			}

			req := generator.Request{
				Subject:    subject,
				MainTopic:  topic.MainTopic,
				Subtopic:   topic.Subtopic,
				Difficulty: difficulty,
				Count:      perTopic[i],
			}

			cellQuestions, err := b.generateCell(ctx, req, pairs)
			if err != nil {
				return nil, err
			}

			// Generation is topic-scoped, but a section may aggregate
			// several topics under one display name.
			for j := range cellQuestions {
				cellQuestions[j].TestSection = sec.Name
			}
			questions = append(questions, cellQuestions...)
		}
	}
	return questions, nil
}

// generateCell produces the questions for one (topic, difficulty) cell.
// When diagram pairs are available it tries multimodal generation first and
// falls back to text-only on any failure: getting the requested count of
// some valid question outweighs insisting on diagram-based ones.
func (b *Builder) generateCell(ctx context.Context, req generator.Request, pairs []model.TextImagePair) ([]model.Question, error) {
	if b.multimodal != nil && len(pairs) > 0 {
		questions, err := b.multimodal.GenerateFromPair(ctx, pairs[0], req)
		if err == nil {
			return questions, nil
		}
		slog.Warn("multimodal generation failed, falling back to text-only",
			"topic", req.MainTopic, "difficulty", req.Difficulty, "error", err)
	}
	return b.gen.Generate(ctx, req)
}

// splitAcrossTopics partitions count across topics: base = count/topics
// everywhere, with the first count%topics topics getting one extra. The
// allocations always sum to count and never differ by more than one.
func splitAcrossTopics(count, topics int) []int {
	base := count / topics
	remainder := count % topics
	out := make([]int, topics)
	for i := range out {
		out[i] = base
		if i < remainder {
			out[i]++
		}
	}
	return out
}
