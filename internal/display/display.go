package display

import (
	"fmt"
	"strings"

	"devforge/internal/mission"
	"devforge/internal/orchestrator"
)

const maxValueLength = 100

func FormatMissionList(list []mission.Summary) string {
	if len(list) == 0 {
		return "No missions yet."
	}
	var sb strings.Builder
	sb.WriteString("ID    STATUS     TITLE\n")
	for _, m := range list {
		sb.WriteString(fmt.Sprintf("%-5d %-10s %s\n", m.ID, m.Status, truncateValue(m.Title)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatMission(m *mission.Mission, steps []mission.Step) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mission %d: %s\n", m.ID, m.Title))
	sb.WriteString(fmt.Sprintf("Status: %s (step %d)\n", m.Status, m.CurrentStep))
	sb.WriteString(fmt.Sprintf("Description: %s\n", truncateValue(m.Description)))
	sb.WriteString("--------------------------------------------------\n")
	if len(steps) == 0 {
		sb.WriteString("No steps executed yet.")
		return sb.String()
	}
	for _, s := range steps {
		sb.WriteString(fmt.Sprintf("Step %d: %s\n", s.StepIndex, truncateValue(s.Description)))
		if s.Evaluation != "" {
			sb.WriteString(fmt.Sprintf("  Evaluation: %s\n", truncateValue(s.Evaluation)))
		}
		for _, f := range s.GeneratedFiles {
			sb.WriteString(fmt.Sprintf("  File: %s\n", f.Path))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatOutcome(out *orchestrator.StepOutcome) string {
	if out.AlreadyCompleted {
		return fmt.Sprintf("Mission %d is already completed.", out.MissionID)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Step %d: %s\n", out.StepIndex, truncateValue(out.NextStep)))
	if len(out.Files) > 0 {
		sb.WriteString(fmt.Sprintf("Files written: %s\n", strings.Join(out.Files, ", ")))
	}
	if out.MissionCompleted {
		sb.WriteString("Mission completed.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatLogs(logs []mission.LogEntry) string {
	if len(logs) == 0 {
		return "No log entries."
	}
	var sb strings.Builder
	for _, e := range logs {
		sb.WriteString(fmt.Sprintf("[%s] %-5s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Level, e.Message))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncateValue(value string) string {
	s := strings.ReplaceAll(value, "\n", "\\n")
	if len(s) > maxValueLength {
		return s[:maxValueLength] + "..."
	}
	return s
}
