package mission

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the mission and its prior steps into the instruction
// text sent to the backend. Pure function, no I/O.
//
// The template asks for STRICT JSON with exactly the four StepResult keys.
// That is a contract with the backend, not a guarantee; Interpret must not
// assume compliance.
func BuildPrompt(m *Mission, priorSteps []Step) string {
	var sb strings.Builder

	sb.WriteString("You are an autonomous development agent.\n")
	sb.WriteString(fmt.Sprintf("Your mission: %s\n", m.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n\n", m.Description))

	if len(priorSteps) > 0 {
		sb.WriteString("PROGRESS SO FAR:\n")
		for _, s := range priorSteps {
			sb.WriteString(fmt.Sprintf("Step %d: %s\n", s.StepIndex, s.Description))
			if strings.TrimSpace(s.Evaluation) != "" {
				sb.WriteString(fmt.Sprintf("Evaluation: %s\n", s.Evaluation))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("RULES:\n")
	sb.WriteString("- Respond ONLY with a single valid JSON object containing exactly these keys:\n")
	sb.WriteString("  1) next_step: string describing the next concrete action to take.\n")
	sb.WriteString("  2) generated_files: array of objects {\"path\":\"relative/file.ext\",\"content\":\"...\"} (zero or more files).\n")
	sb.WriteString("  3) evaluation: short text judging whether the proposed work solves the need.\n")
	sb.WriteString("  4) mission_completed: boolean, true if this step finishes the mission.\n")
	sb.WriteString("- If you cannot generate code, use generated_files: [] and explain in evaluation.\n")
	sb.WriteString("- Do NOT include any text outside the JSON object.\n")

	return sb.String()
}
