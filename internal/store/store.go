// Package store persists built papers and their questions in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/papergen/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		subject TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS paper_questions (
		id TEXT PRIMARY KEY,
		paper_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		test_section TEXT NOT NULL,
		main_topic TEXT NOT NULL,
		subtopic TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL,
		question_text TEXT NOT NULL,
		option_a TEXT NOT NULL,
		option_b TEXT NOT NULL,
		option_c TEXT NOT NULL,
		option_d TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		explanation TEXT NOT NULL,
		refs TEXT NOT NULL DEFAULT '[]',
		source_pdf TEXT NOT NULL DEFAULT '',
		has_diagram INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (paper_id) REFERENCES papers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_paper_questions_paper ON paper_questions(paper_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertPaper stores a paper and all of its questions in one transaction.
func (s *Store) InsertPaper(p *model.Paper) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO papers (id, name, subject, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Subject, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}

	for i, q := range p.Questions {
		refs, err := json.Marshal(q.References)
		if err != nil {
			return fmt.Errorf("marshal references for question %s: %w", q.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO paper_questions
			 (id, paper_id, position, test_section, main_topic, subtopic, difficulty,
			  question_text, option_a, option_b, option_c, option_d,
			  correct_answer, explanation, refs, source_pdf, has_diagram, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, p.ID, i, q.TestSection, q.MainTopic, q.Subtopic, string(q.Difficulty),
			q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			q.CorrectAnswer, q.Explanation, string(refs), q.SourcePDF, q.HasDiagram, q.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}

	return tx.Commit()
}

// GetPaper loads a paper with its questions in stored order.
// Returns sql.ErrNoRows when the paper does not exist.
func (s *Store) GetPaper(id string) (*model.Paper, error) {
	p := &model.Paper{}
	err := s.db.QueryRow(
		`SELECT id, name, subject, created_at FROM papers WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Subject, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, test_section, main_topic, subtopic, difficulty,
		        question_text, option_a, option_b, option_c, option_d,
		        correct_answer, explanation, refs, source_pdf, has_diagram, created_at
		 FROM paper_questions WHERE paper_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.Question
		var difficulty, refs string
		err := rows.Scan(&q.ID, &q.TestSection, &q.MainTopic, &q.Subtopic, &difficulty,
			&q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectAnswer, &q.Explanation, &refs, &q.SourcePDF, &q.HasDiagram, &q.CreatedAt)
		if err != nil {
			return nil, err
		}
		q.Difficulty = model.Difficulty(difficulty)
		if err := json.Unmarshal([]byte(refs), &q.References); err != nil {
			return nil, fmt.Errorf("parse references for question %s: %w", q.ID, err)
		}
		p.Questions = append(p.Questions, q)
	}
	return p, rows.Err()
}

// ListPapers returns summaries of all stored papers, newest first.
func (s *Store) ListPapers() ([]model.PaperSummary, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.name, p.subject, p.created_at, COUNT(q.id)
		 FROM papers p LEFT JOIN paper_questions q ON q.paper_id = p.id
		 GROUP BY p.id ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PaperSummary
	for rows.Next() {
		var sum model.PaperSummary
		var created time.Time
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Subject, &created, &sum.QuestionCount); err != nil {
			return nil, err
		}
		sum.CreatedAt = created
		out = append(out, sum)
	}
	return out, rows.Err()
}
