package blueprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/papergen/internal/model"
)

const validBlueprint = `
name: GATE Metallurgy Mock Test 1
subject: Metallurgical Engineering
sections:
  - name: Material Science
    question_count: 10
    distribution:
      easy: 4
      medium: 4
      hard: 2
    topics:
      - main_topic: Material Science
        subtopic: Crystal Structure
      - main_topic: Material Science
        subtopic: Phase Diagrams
  - name: Thermodynamics
    question_count: 5
    distribution:
      medium: 5
    topics:
      - main_topic: Thermodynamics
        subtopic: Gibbs Energy
`

func TestParse(t *testing.T) {
	cfg, sections, err := Parse([]byte(validBlueprint))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "GATE Metallurgy Mock Test 1" || cfg.Subject != "Metallurgical Engineering" {
		t.Errorf("paper config = %+v", cfg)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	ms := sections[0]
	if ms.Name != "Material Science" || ms.QuestionCount != 10 {
		t.Errorf("first section = %+v", ms)
	}
	if ms.Distribution[model.DifficultyEasy] != 4 ||
		ms.Distribution[model.DifficultyMedium] != 4 ||
		ms.Distribution[model.DifficultyHard] != 2 {
		t.Errorf("distribution = %v", ms.Distribution)
	}
	if len(ms.Topics) != 2 || ms.Topics[1].Subtopic != "Phase Diagrams" {
		t.Errorf("topics = %v", ms.Topics)
	}

	if sections[1].Distribution[model.DifficultyMedium] != 5 {
		t.Errorf("second section distribution = %v", sections[1].Distribution)
	}
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "{{{",
			wantErr: "parse blueprint",
		},
		{
			name:    "missing name",
			yaml:    "subject: X\nsections:\n  - name: S\n",
			wantErr: "no name",
		},
		{
			name:    "missing subject",
			yaml:    "name: X\nsections:\n  - name: S\n",
			wantErr: "no subject",
		},
		{
			name:    "no sections",
			yaml:    "name: X\nsubject: Y\n",
			wantErr: "no sections",
		},
		{
			name: "unknown difficulty label",
			yaml: `
name: X
subject: Y
sections:
  - name: S
    question_count: 2
    distribution:
      extreme: 2
    topics:
      - main_topic: T
`,
			wantErr: "difficulty",
		},
		{
			name: "distribution does not sum to count",
			yaml: `
name: X
subject: Y
sections:
  - name: S
    question_count: 5
    distribution:
      easy: 2
      medium: 2
    topics:
      - main_topic: T
`,
			wantErr: "sums to 4",
		},
		{
			name: "section without topics",
			yaml: `
name: X
subject: Y
sections:
  - name: S
    question_count: 1
    distribution:
      easy: 1
`,
			wantErr: "no topics",
		},
		{
			name: "topic without main_topic",
			yaml: `
name: X
subject: Y
sections:
  - name: S
    question_count: 1
    distribution:
      easy: 1
    topics:
      - subtopic: Sub
`,
			wantErr: "main_topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueprint.yaml")
	if err := os.WriteFile(path, []byte(validBlueprint), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, sections, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name == "" || len(sections) != 2 {
		t.Errorf("Load returned cfg=%+v sections=%d", cfg, len(sections))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
