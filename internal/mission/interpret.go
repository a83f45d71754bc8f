package mission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONFound means the backend text contained no '{' ... '}' pair at all.
var ErrNoJSONFound = errors.New("no JSON object found in model response")

// FallbackEvaluation marks steps synthesized from a response that did not
// follow the instructed schema.
const FallbackEvaluation = "no-structured-response"

const fallbackMaxLen = 2000

// MalformedJSONError carries the slice that failed to parse, for diagnostics.
type MalformedJSONError struct {
	Slice string
	Err   error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("model produced malformed JSON: %v (slice: %s)", e.Err, truncate(e.Slice, 200))
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// Interpret extracts a StepResult from raw model output.
//
// Models routinely wrap their JSON in prose or markdown fences, so the text
// is sliced from the first '{' to the last '}' before parsing. A parsed
// object that lacks next_step is not rejected: the whole response is folded
// into a fallback step so the mission still advances. Strictness here would
// stall missions on the single most common backend failure.
func Interpret(text string) (StepResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || end < start {
		return StepResult{}, ErrNoJSONFound
	}

	slice := text[start : end+1]
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(slice), &raw); err != nil {
		return StepResult{}, &MalformedJSONError{Slice: slice, Err: err}
	}

	// A JSON null next_step counts as missing.
	if v, ok := raw["next_step"]; !ok || isNull(v) {
		return fallbackResult(raw), nil
	}

	var res StepResult
	res.NextStep = stringField(raw, "next_step")
	res.Evaluation = stringField(raw, "evaluation")
	res.MissionCompleted = truthyField(raw, "mission_completed")
	res.GeneratedFiles = filesField(raw, "generated_files")
	return res, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// fallbackResult wraps an off-schema object into a committable step: the
// description comes from a "text" field when present, else from the
// re-serialized object itself, truncated.
func fallbackResult(raw map[string]json.RawMessage) StepResult {
	desc := stringField(raw, "text")
	if desc == "" {
		if b, err := json.Marshal(raw); err == nil {
			desc = string(b)
		}
	}
	return StepResult{
		NextStep:         truncate(desc, fallbackMaxLen),
		GeneratedFiles:   []GeneratedFile{},
		Evaluation:       FallbackEvaluation,
		MissionCompleted: false,
	}
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// truthyField coerces loosely typed completion flags: models emit 1 or
// "true" as often as a real boolean. Zero numbers and the strings "",
// "false" and "0" stay false.
func truthyField(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		return s != "" && s != "false" && s != "0"
	}
	return false
}

// filesField decodes the generated files, dropping entries without a path
// or without a content key. An empty content string is a legitimate empty
// file and is kept.
func filesField(raw map[string]json.RawMessage, key string) []GeneratedFile {
	v, ok := raw[key]
	if !ok {
		return []GeneratedFile{}
	}
	var entries []struct {
		Path    string  `json:"path"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(v, &entries); err != nil {
		return []GeneratedFile{}
	}
	files := make([]GeneratedFile, 0, len(entries))
	for _, e := range entries {
		if e.Path == "" || e.Content == nil {
			continue
		}
		files = append(files, GeneratedFile{Path: e.Path, Content: *e.Content})
	}
	return files
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
