// Package prompts builds the generation prompts sent to the text and
// vision models. Prompt construction is pure string assembly; callers treat
// the result as opaque.
package prompts

import (
	"fmt"
	"strings"

	"github.com/pavelanni/papergen/internal/model"
)

const systemPrompt = `You are an expert question writer for high-stakes technical examinations in engineering and science. Your task is to generate multiple-choice questions (MCQs) that are:

1. Technically accurate and based on well-established concepts
2. Clear and unambiguous in wording
3. Appropriately challenging for the specified difficulty level
4. Educational, with detailed explanations that teach the concept
5. Well-referenced with credible sources (textbooks, academic websites)

You must follow the exact JSON format specified and ensure all questions have exactly 4 options with only one correct answer.`

const multimodalSystemPrompt = `You are an expert question writer for technical examinations in engineering and science. You have been provided with one or more diagrams, graphs, or formula images along with contextual text.

Your task is to generate multiple-choice questions (MCQs) that:

1. Require the diagram/image to answer correctly - the question should NOT be answerable from text alone
2. Test visual understanding - interpreting graphs, reading diagrams, analyzing formulas shown in the image
3. Are technically accurate based on the diagram and context provided
4. Match the specified difficulty level
5. Include detailed explanations that reference specific elements of the diagram

IMPORTANT: The question must explicitly require looking at the provided image(s). Students should need to interpret visual information to answer.`

const difficultyDefinitions = `Difficulty level definitions:

1. Easy:
   - Direct recall of definitions, formulas, or basic facts
   - Requires minimal reasoning or calculation
   - Single-step problems

2. Medium:
   - Application of concepts or formulas to solve problems
   - Requires 1-2 steps of reasoning or calculation
   - May combine 2 related concepts

3. Hard:
   - Multi-step reasoning or complex problem-solving
   - Combines multiple concepts from different topics
   - Requires deep understanding and analysis`

// fewShotExample is one worked example included in few-shot prompts.
type fewShotExample struct {
	Difficulty model.Difficulty
	Subtopic   string
	JSON       string
}

var fewShotExamples = []fewShotExample{
	{
		Difficulty: model.DifficultyEasy,
		Subtopic:   "Linear Algebra - Matrices and Determinants",
		JSON: `{
  "question_text_en": "What is the determinant of a 2x2 identity matrix?",
  "option_a_en": "0",
  "option_b_en": "1",
  "option_c_en": "2",
  "option_d_en": "-1",
  "correct_answer": "B",
  "explanation": "The determinant of an identity matrix of any size is always 1. For a 2x2 identity matrix I = [[1,0],[0,1]], det(I) = (1x1) - (0x0) = 1. The identity matrix represents no scaling or rotation, hence determinant = 1.",
  "references": [
    "https://en.wikipedia.org/wiki/Determinant",
    "Linear Algebra and Its Applications by Gilbert Strang, Chapter 5"
  ]
}`,
	},
	{
		Difficulty: model.DifficultyMedium,
		Subtopic:   "Crystal Structure - Crystal Systems",
		JSON: `{
  "question_text_en": "A metal crystallizes in a face-centered cubic (FCC) structure. What is the coordination number of each atom?",
  "option_a_en": "6",
  "option_b_en": "8",
  "option_c_en": "12",
  "option_d_en": "4",
  "correct_answer": "C",
  "explanation": "In an FCC structure, each atom is surrounded by 12 nearest neighbors: 4 atoms in the plane above, 4 in the same plane at face centers, and 4 in the plane below. This gives FCC its high packing efficiency of 74%. Common FCC metals include aluminum, copper, and gold.",
  "references": [
    "https://en.wikipedia.org/wiki/Cubic_crystal_system",
    "Materials Science and Engineering: An Introduction by William D. Callister, Chapter 3"
  ]
}`,
	},
	{
		Difficulty: model.DifficultyHard,
		Subtopic:   "Phase Diagrams - Iron-Carbon Diagram",
		JSON: `{
  "question_text_en": "A steel sample containing 0.8% carbon is slowly cooled from 1000 degrees C to room temperature. At approximately what temperature will it undergo the eutectoid transformation?",
  "option_a_en": "1147 degrees C",
  "option_b_en": "912 degrees C",
  "option_c_en": "727 degrees C",
  "option_d_en": "600 degrees C",
  "correct_answer": "C",
  "explanation": "The eutectoid transformation in the Fe-C system occurs at 727 degrees C when austenite transforms into pearlite, a mixture of ferrite and cementite. The composition with 0.8% C is the eutectoid composition, so it transforms entirely to pearlite at this single temperature, unlike hypo- or hypereutectoid steels which transform over a temperature range.",
  "references": [
    "https://en.wikipedia.org/wiki/Iron%E2%80%93carbon_phase_diagram",
    "Phase Diagrams in Metallurgy by F.N. Rhines, Chapter 4"
  ]
}`,
	},
}

// relevantExamples picks few-shot examples matching the requested
// difficulty, plus the level below it when there is one.
func relevantExamples(d model.Difficulty) []fewShotExample {
	wanted := map[model.Difficulty]bool{d: true}
	switch d {
	case model.DifficultyMedium:
		wanted[model.DifficultyEasy] = true
	case model.DifficultyHard:
		wanted[model.DifficultyMedium] = true
	}
	var out []fewShotExample
	for _, ex := range fewShotExamples {
		if wanted[ex.Difficulty] {
			out = append(out, ex)
		}
	}
	return out
}

// BuildGenerationPrompt assembles the full prompt for text-only MCQ
// generation.
func BuildGenerationPrompt(subject, mainTopic, subtopic string, difficulty model.Difficulty, n int, fewShot bool) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(difficultyDefinitions)
	sb.WriteString("\n\nYour task:\n")
	fmt.Fprintf(&sb, "Generate %d multiple-choice question(s) with the following parameters:\n", n)
	fmt.Fprintf(&sb, "- Subject: %s\n", subject)
	fmt.Fprintf(&sb, "- Main Topic: %s\n", mainTopic)
	fmt.Fprintf(&sb, "- Sub-topic: %s\n", subtopic)
	fmt.Fprintf(&sb, "- Difficulty Level: %s\n", difficulty)
	sb.WriteString(`
Requirements:
1. Each MCQ must have:
   - A clear, specific question in English
   - Exactly 4 options (A, B, C, D), all plausible and distinct
   - Exactly one correct answer
   - A detailed explanation (minimum 50 words) that explains WHY the correct answer is right
   - At least 2 credible references: academic websites or textbook citations with chapter numbers
2. Match the requested difficulty level.
3. Ensure technical accuracy - verify all facts, formulas, and concepts.
`)

	if fewShot {
		sb.WriteString("\nExamples of well-formed MCQs:\n")
		for i, ex := range relevantExamples(difficulty) {
			fmt.Fprintf(&sb, "\nExample %d (%s difficulty):\nTopic: %s\n```json\n%s\n```\n", i+1, ex.Difficulty, ex.Subtopic, ex.JSON)
		}
	}

	writeOutputFormat(&sb, n)
	return sb.String()
}

// BuildMultimodalPrompt assembles the prompt for diagram-based MCQ
// generation. The text context and diagram type hint come from the
// extraction pair.
func BuildMultimodalPrompt(textContext string, numImages int, subject, mainTopic, subtopic string, difficulty model.Difficulty, n int, diagramType string) string {
	imageRef := "the diagram shown"
	if numImages > 1 {
		imageRef = fmt.Sprintf("the %d diagrams/images provided", numImages)
	}

	var sb strings.Builder
	sb.WriteString(multimodalSystemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(difficultyDefinitions)
	sb.WriteString("\n\nContext and diagram(s):\n")
	fmt.Fprintf(&sb, "You have been provided with %s and the following context:\n\n```\n%s\n```\n", imageRef, textContext)
	sb.WriteString("\nYour task:\n")
	fmt.Fprintf(&sb, "Generate %d multiple-choice question(s) that:\n", n)
	fmt.Fprintf(&sb, "- Require interpreting %s to answer\n", imageRef)
	fmt.Fprintf(&sb, "- Test understanding of the %s\n", diagramType)
	fmt.Fprintf(&sb, "- Subject: %s\n", subject)
	fmt.Fprintf(&sb, "- Main Topic: %s\n", mainTopic)
	fmt.Fprintf(&sb, "- Sub-topic: %s\n", subtopic)
	fmt.Fprintf(&sb, "- Difficulty Level: %s\n", difficulty)
	sb.WriteString(`
Requirements:
1. The question MUST require looking at the image(s) to answer correctly.
2. Reference specific elements visible in the diagram (e.g. "point A on the graph", "the curve shown").
3. Provide 4 distinct options (A, B, C, D).
4. Include a detailed explanation that describes what to look for in the diagram and why the correct answer is right based on visual evidence.
5. Provide at least 2 credible references.
`)

	writeOutputFormat(&sb, n)
	return sb.String()
}

// DiagramTypeHint infers a short description of the diagram kind from its
// surrounding text, used to steer the multimodal prompt.
func DiagramTypeHint(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "phase diagram"):
		return "phase diagram"
	case strings.Contains(lower, "stress") && strings.Contains(lower, "strain"):
		return "stress-strain curve"
	case strings.Contains(lower, "circuit"):
		return "circuit diagram"
	case strings.Contains(lower, "free body"):
		return "free body diagram"
	case strings.Contains(lower, "flow"):
		return "flow chart"
	case strings.Contains(lower, "graph") || strings.Contains(lower, "curve") || strings.Contains(lower, "plot"):
		return "graph"
	case strings.Contains(lower, "table"):
		return "data table"
	case strings.Contains(lower, "formula") || strings.Contains(lower, "equation"):
		return "formula"
	}
	return "diagram"
}

func writeOutputFormat(sb *strings.Builder, n int) {
	sb.WriteString("\nOutput format:\n")
	fmt.Fprintf(sb, "Respond with a JSON array containing %d question object(s).\n", n)
	sb.WriteString("Each object must have these exact keys:\n")
	sb.WriteString("```json\n[\n  {\n")
	sb.WriteString(`    "question_text_en": "Your question here?",
    "option_a_en": "First option",
    "option_b_en": "Second option",
    "option_c_en": "Third option",
    "option_d_en": "Fourth option",
    "correct_answer": "A",
    "explanation": "Detailed explanation of the correct answer and concept...",
    "references": [
      "https://example.com/source1",
      "Textbook Name by Author, Chapter X"
    ]
`)
	sb.WriteString("  }\n]\n```\n")
	sb.WriteString(`
Important:
- Output ONLY the JSON array, no additional text
- Ensure valid JSON syntax (use double quotes, escape special characters)
- All text must be in English
- Verify that the correct_answer letter matches the actual correct option
`)
}
