package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports that a model response could not be turned into
// structured question records. Parsing is all-or-nothing: a response either
// yields every record it contains or fails entirely.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model response: %s: %v", e.Msg, e.Err)
	}
	return "parse model response: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Trailing commas before a closing bracket or brace are the one JSON defect
// models produce often enough to repair. Anything beyond that fails the
// parse; more elaborate repair belongs in a dedicated lenient parser.
var trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)

// ExtractRecords pulls a JSON array of question records out of free-form
// model output. The text may contain surrounding prose; the first `[` to
// the last `]` is treated as the array. A lone object is wrapped in a
// one-element array.
func ExtractRecords(raw string) ([]map[string]any, error) {
	src, ok := bracketSpan(raw, '[', ']')
	if !ok {
		obj, okObj := bracketSpan(raw, '{', '}')
		if !okObj {
			return nil, &ParseError{Msg: "no structured data found"}
		}
		src = "[" + obj + "]"
	}

	var data any
	if err := json.Unmarshal([]byte(src), &data); err != nil {
		repaired := trailingCommaRe.ReplaceAllString(src, "$1")
		if err2 := json.Unmarshal([]byte(repaired), &data); err2 != nil {
			return nil, &ParseError{Msg: "invalid JSON in model response", Err: err}
		}
	}

	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("expected JSON array or object, got %T", data)}
	}

	if len(items) == 0 {
		return nil, &ParseError{Msg: "response contained an empty array"}
	}

	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, &ParseError{Msg: fmt.Sprintf("array element %d is not an object", i)}
		}
		records = append(records, rec)
	}
	return records, nil
}

// bracketSpan returns the substring from the first open byte to the last
// close byte, mirroring a greedy regex match across the whole text.
func bracketSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}
