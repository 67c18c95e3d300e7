package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/papergen/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPaper(name string, questions int) *model.Paper {
	p := &model.Paper{
		ID:        uuid.NewString(),
		Name:      name,
		Subject:   "Metallurgical Engineering",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for i := 0; i < questions; i++ {
		p.Questions = append(p.Questions, model.Question{
			ID:            uuid.NewString(),
			TestSection:   "Material Science",
			MainTopic:     "Material Science",
			Subtopic:      "Crystal Structure",
			Difficulty:    model.DifficultyMedium,
			Text:          "Which crystal structure does FCC iron have?",
			OptionA:       "Body centered cubic",
			OptionB:       "Face centered cubic",
			OptionC:       "Hexagonal close packed",
			OptionD:       "Simple cubic",
			CorrectAnswer: "B",
			Explanation:   "Austenite is the FCC allotrope of iron, stable between 912 and 1394 degrees C.",
			References:    []string{"Callister, Materials Science, Chapter 3"},
			CreatedAt:     time.Now().UTC().Truncate(time.Second),
		})
	}
	return p
}

func TestInsertAndGetPaper(t *testing.T) {
	s := newTestStore(t)

	p := testPaper("Mock Test 1", 3)
	if err := s.InsertPaper(p); err != nil {
		t.Fatalf("InsertPaper: %v", err)
	}

	got, err := s.GetPaper(p.ID)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if got.Name != p.Name || got.Subject != p.Subject {
		t.Errorf("paper header = %+v", got)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got.Questions))
	}

	// Questions come back in insertion order with all fields intact.
	for i, q := range got.Questions {
		want := p.Questions[i]
		if q.ID != want.ID {
			t.Errorf("question %d out of order: got %s want %s", i, q.ID, want.ID)
		}
		if q.Difficulty != model.DifficultyMedium {
			t.Errorf("question %d difficulty = %s", i, q.Difficulty)
		}
		if len(q.References) != 1 || q.References[0] != want.References[0] {
			t.Errorf("question %d references = %v", i, q.References)
		}
		if q.CorrectAnswer != "B" || q.OptionB != want.OptionB {
			t.Errorf("question %d content mismatch: %+v", i, q)
		}
	}
}

func TestGetPaperMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPaper(uuid.NewString())
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestInsertPaperDuplicateIDRollsBack(t *testing.T) {
	s := newTestStore(t)

	p := testPaper("Mock Test 1", 2)
	if err := s.InsertPaper(p); err != nil {
		t.Fatalf("InsertPaper: %v", err)
	}
	if err := s.InsertPaper(p); err == nil {
		t.Fatal("expected error for duplicate paper ID")
	}

	// The failed insert must not leave partial rows behind.
	got, err := s.GetPaper(p.ID)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if len(got.Questions) != 2 {
		t.Errorf("expected 2 questions after rollback, got %d", len(got.Questions))
	}
}

func TestListPapers(t *testing.T) {
	s := newTestStore(t)

	list, err := s.ListPapers()
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	first := testPaper("Older", 1)
	first.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	second := testPaper("Newer", 4)
	for _, p := range []*model.Paper{first, second} {
		if err := s.InsertPaper(p); err != nil {
			t.Fatalf("InsertPaper %s: %v", p.Name, err)
		}
	}

	list, err = s.ListPapers()
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(list))
	}
	if list[0].Name != "Newer" || list[1].Name != "Older" {
		t.Errorf("expected newest first, got %s then %s", list[0].Name, list[1].Name)
	}
	if list[0].QuestionCount != 4 || list[1].QuestionCount != 1 {
		t.Errorf("question counts = %d, %d", list[0].QuestionCount, list[1].QuestionCount)
	}
}
