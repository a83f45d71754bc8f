package mission

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInterpretStructuredResponse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected StepResult
	}{
		{
			name:  "Clean JSON object",
			input: `{"next_step":"create health.go","generated_files":[{"path":"health.go","content":"package main"}],"evaluation":"ok","mission_completed":false}`,
			expected: StepResult{
				NextStep:         "create health.go",
				GeneratedFiles:   []GeneratedFile{{Path: "health.go", Content: "package main"}},
				Evaluation:       "ok",
				MissionCompleted: false,
			},
		},
		{
			name:  "JSON wrapped in surrounding prose",
			input: "Sure! Here is the plan:\n```json\n{\"next_step\":\"write tests\",\"generated_files\":[],\"evaluation\":\"fine\",\"mission_completed\":true}\n```\nLet me know.",
			expected: StepResult{
				NextStep:         "write tests",
				GeneratedFiles:   []GeneratedFile{},
				Evaluation:       "fine",
				MissionCompleted: true,
			},
		},
		{
			name:  "Missing optional fields default",
			input: `{"next_step":"just a step"}`,
			expected: StepResult{
				NextStep:         "just a step",
				GeneratedFiles:   []GeneratedFile{},
				Evaluation:       "",
				MissionCompleted: false,
			},
		},
		{
			name:  "generated_files of the wrong type defaults to empty",
			input: `{"next_step":"s","generated_files":"oops","mission_completed":"yes"}`,
			expected: StepResult{
				NextStep:         "s",
				GeneratedFiles:   []GeneratedFile{},
				Evaluation:       "",
				MissionCompleted: true,
			},
		},
		{
			name:  "Empty file content is kept, absent content is dropped",
			input: `{"next_step":"s","generated_files":[{"path":"empty.txt","content":""},{"path":"no-content.txt"}]}`,
			expected: StepResult{
				NextStep:         "s",
				GeneratedFiles:   []GeneratedFile{{Path: "empty.txt", Content: ""}},
				Evaluation:       "",
				MissionCompleted: false,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Interpret(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.NextStep != tc.expected.NextStep {
				t.Errorf("NextStep = %q, want %q", got.NextStep, tc.expected.NextStep)
			}
			if got.Evaluation != tc.expected.Evaluation {
				t.Errorf("Evaluation = %q, want %q", got.Evaluation, tc.expected.Evaluation)
			}
			if got.MissionCompleted != tc.expected.MissionCompleted {
				t.Errorf("MissionCompleted = %v, want %v", got.MissionCompleted, tc.expected.MissionCompleted)
			}
			if len(got.GeneratedFiles) != len(tc.expected.GeneratedFiles) {
				t.Fatalf("GeneratedFiles len = %d, want %d", len(got.GeneratedFiles), len(tc.expected.GeneratedFiles))
			}
			for i := range got.GeneratedFiles {
				if got.GeneratedFiles[i] != tc.expected.GeneratedFiles[i] {
					t.Errorf("GeneratedFiles[%d] = %+v, want %+v", i, got.GeneratedFiles[i], tc.expected.GeneratedFiles[i])
				}
			}
		})
	}
}

func TestInterpretRoundTrip(t *testing.T) {
	original := StepResult{
		NextStep:         "add the /health endpoint",
		GeneratedFiles:   []GeneratedFile{{Path: "srv/health.go", Content: "package srv\n"}},
		Evaluation:       "looks complete",
		MissionCompleted: true,
	}
	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	noisy := "The model says:\n" + string(encoded) + "\nEnd of transmission."

	got, err := Interpret(noisy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.NextStep != original.NextStep || got.Evaluation != original.Evaluation ||
		got.MissionCompleted != original.MissionCompleted {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.GeneratedFiles) != 1 || got.GeneratedFiles[0] != original.GeneratedFiles[0] {
		t.Errorf("round trip files mismatch: got %+v", got.GeneratedFiles)
	}
}

func TestInterpretCompletionCoercion(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"Boolean true", `{"next_step":"s","mission_completed":true}`, true},
		{"Number one", `{"next_step":"s","mission_completed":1}`, true},
		{"String true", `{"next_step":"s","mission_completed":"true"}`, true},
		{"String yes", `{"next_step":"s","mission_completed":"yes"}`, true},
		{"Boolean false", `{"next_step":"s","mission_completed":false}`, false},
		{"Number zero", `{"next_step":"s","mission_completed":0}`, false},
		{"String false", `{"next_step":"s","mission_completed":"FALSE"}`, false},
		{"String zero", `{"next_step":"s","mission_completed":"0"}`, false},
		{"Empty string", `{"next_step":"s","mission_completed":""}`, false},
		{"Null", `{"next_step":"s","mission_completed":null}`, false},
		{"Absent", `{"next_step":"s"}`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Interpret(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MissionCompleted != tc.want {
				t.Errorf("MissionCompleted = %v, want %v", got.MissionCompleted, tc.want)
			}
		})
	}
}

func TestInterpretNullNextStepFallsBack(t *testing.T) {
	got, err := Interpret(`{"next_step":null,"text":"hi"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.NextStep != "hi" {
		t.Errorf("NextStep = %q, want %q", got.NextStep, "hi")
	}
	if got.Evaluation != FallbackEvaluation {
		t.Errorf("Evaluation = %q, want %q", got.Evaluation, FallbackEvaluation)
	}
	if got.MissionCompleted {
		t.Error("fallback must never complete the mission")
	}
}

func TestInterpretNoJSON(t *testing.T) {
	_, err := Interpret("I could not come up with anything useful.")
	if !errors.Is(err, ErrNoJSONFound) {
		t.Fatalf("expected ErrNoJSONFound, got %v", err)
	}
}

func TestInterpretMalformedJSON(t *testing.T) {
	_, err := Interpret(`prefix {"next_step": "unterminated } suffix`)
	var malformed *MalformedJSONError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedJSONError, got %v", err)
	}
	if malformed.Slice == "" {
		t.Error("expected the offending slice to be carried for diagnostics")
	}
}

func TestInterpretFallback(t *testing.T) {
	t.Run("text field becomes the step description", func(t *testing.T) {
		got, err := Interpret(`{"text":"hello"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.NextStep != "hello" {
			t.Errorf("NextStep = %q, want %q", got.NextStep, "hello")
		}
		if len(got.GeneratedFiles) != 0 {
			t.Errorf("expected no generated files, got %d", len(got.GeneratedFiles))
		}
		if got.Evaluation != FallbackEvaluation {
			t.Errorf("Evaluation = %q, want %q", got.Evaluation, FallbackEvaluation)
		}
		if got.MissionCompleted {
			t.Error("fallback must never complete the mission")
		}
	})

	t.Run("whole object is reserialized when text is absent", func(t *testing.T) {
		got, err := Interpret(`{"thought":"hmm","confidence":0.4}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got.NextStep, "thought") {
			t.Errorf("expected reserialized object in NextStep, got %q", got.NextStep)
		}
		if got.Evaluation != FallbackEvaluation {
			t.Errorf("Evaluation = %q, want %q", got.Evaluation, FallbackEvaluation)
		}
	})

	t.Run("long text is truncated", func(t *testing.T) {
		long := strings.Repeat("x", 5000)
		got, err := Interpret(`{"text":"` + long + `"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.NextStep) != fallbackMaxLen {
			t.Errorf("NextStep length = %d, want %d", len(got.NextStep), fallbackMaxLen)
		}
	})
}
