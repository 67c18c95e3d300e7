// Package bank tracks question identifiers that have been issued in any
// built paper, so questions are never reissued across paper builds. The set
// is the single durable state of the pipeline: it is loaded once, and every
// mutation rewrites the whole state file.
package bank

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pavelanni/papergen/internal/model"
)

// Bank owns the persisted set of used question IDs. It is not safe for
// concurrent use; paper builds run one at a time.
type Bank struct {
	path      string
	used      map[string]struct{}
	questions []model.Question
}

type state struct {
	UsedQuestionIDs []string `json:"used_question_ids"`
}

// Open loads the bank state from path, or starts empty if the file does
// not exist yet. Read failures are fatal: silently losing dedup state would
// be worse than a crash.
func Open(path string) (*Bank, error) {
	b := &Bank{
		path: path,
		used: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("read bank state %s: %w", path, err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse bank state %s: %w", path, err)
	}
	for _, id := range st.UsedQuestionIDs {
		b.used[id] = struct{}{}
	}
	return b, nil
}

// IsUsed reports whether a question ID has been issued before.
func (b *Bank) IsUsed(id string) bool {
	_, ok := b.used[id]
	return ok
}

// Size returns the number of tracked question IDs.
func (b *Bank) Size() int {
	return len(b.used)
}

// Questions returns the questions accumulated in this process.
func (b *Bank) Questions() []model.Question {
	return b.questions
}

// Add marks the questions' IDs as used, skipping IDs already present, and
// persists the full set once after the whole batch. Write failures are
// fatal to the caller.
func (b *Bank) Add(questions []model.Question) error {
	for _, q := range questions {
		if _, ok := b.used[q.ID]; ok {
			continue
		}
		b.used[q.ID] = struct{}{}
		b.questions = append(b.questions, q)
	}
	return b.save()
}

// Clear empties the bank and persists the empty state.
func (b *Bank) Clear() error {
	b.used = make(map[string]struct{})
	b.questions = nil
	return b.save()
}

// save rewrites the whole state file. IDs are sorted so the file is
// deterministic.
func (b *Bank) save() error {
	ids := make([]string, 0, len(b.used))
	for id := range b.used {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(state{UsedQuestionIDs: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bank state: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("write bank state %s: %w", b.path, err)
	}
	return nil
}
