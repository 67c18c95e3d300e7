// Package blueprint loads paper blueprints from YAML files. A blueprint
// names the paper and lists its sections with per-difficulty question
// distributions and the topics each section draws from.
package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/papergen/internal/model"
)

type fileBlueprint struct {
	Name     string        `yaml:"name"`
	Subject  string        `yaml:"subject"`
	Sections []fileSection `yaml:"sections"`
}

type fileSection struct {
	Name          string         `yaml:"name"`
	QuestionCount int            `yaml:"question_count"`
	Distribution  map[string]int `yaml:"distribution"`
	Topics        []fileTopic    `yaml:"topics"`
}

type fileTopic struct {
	MainTopic string `yaml:"main_topic"`
	Subtopic  string `yaml:"subtopic"`
}

// Load reads and validates a blueprint file. Difficulty labels are checked
// against the known set, and each section's distribution must sum to its
// question count so a typo cannot silently shrink a paper.
func Load(path string) (model.PaperConfig, []model.SectionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PaperConfig{}, nil, fmt.Errorf("read blueprint %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw blueprint YAML.
func Parse(data []byte) (model.PaperConfig, []model.SectionSpec, error) {
	var bp fileBlueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return model.PaperConfig{}, nil, fmt.Errorf("parse blueprint: %w", err)
	}

	if bp.Name == "" {
		return model.PaperConfig{}, nil, fmt.Errorf("blueprint has no name")
	}
	if bp.Subject == "" {
		return model.PaperConfig{}, nil, fmt.Errorf("blueprint has no subject")
	}
	if len(bp.Sections) == 0 {
		return model.PaperConfig{}, nil, fmt.Errorf("blueprint has no sections")
	}

	sections := make([]model.SectionSpec, 0, len(bp.Sections))
	for _, fs := range bp.Sections {
		sec, err := buildSection(fs)
		if err != nil {
			return model.PaperConfig{}, nil, fmt.Errorf("section %q: %w", fs.Name, err)
		}
		sections = append(sections, sec)
	}

	cfg := model.PaperConfig{Name: bp.Name, Subject: bp.Subject}
	return cfg, sections, nil
}

func buildSection(fs fileSection) (model.SectionSpec, error) {
	if fs.Name == "" {
		return model.SectionSpec{}, fmt.Errorf("section has no name")
	}
	if fs.QuestionCount <= 0 {
		return model.SectionSpec{}, fmt.Errorf("question_count must be positive, got %d", fs.QuestionCount)
	}
	if len(fs.Topics) == 0 {
		return model.SectionSpec{}, fmt.Errorf("section has no topics")
	}

	dist := make(map[model.Difficulty]int, len(fs.Distribution))
	total := 0
	for label, n := range fs.Distribution {
		d, err := model.ParseDifficulty(label)
		if err != nil {
			return model.SectionSpec{}, err
		}
		if n < 0 {
			return model.SectionSpec{}, fmt.Errorf("negative count %d for difficulty %s", n, d)
		}
		dist[d] = n
		total += n
	}
	if total != fs.QuestionCount {
		return model.SectionSpec{}, fmt.Errorf("distribution sums to %d, question_count is %d", total, fs.QuestionCount)
	}

	topics := make([]model.TopicSpec, 0, len(fs.Topics))
	for _, ft := range fs.Topics {
		if ft.MainTopic == "" {
			return model.SectionSpec{}, fmt.Errorf("topic has no main_topic")
		}
		topics = append(topics, model.TopicSpec{MainTopic: ft.MainTopic, Subtopic: ft.Subtopic})
	}

	return model.SectionSpec{
		Name:          fs.Name,
		QuestionCount: fs.QuestionCount,
		Distribution:  dist,
		Topics:        topics,
	}, nil
}
