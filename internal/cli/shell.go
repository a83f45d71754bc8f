package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devforge/internal/display"
	"devforge/internal/listener"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive mission shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := listener.Init(); err != nil {
			return fmt.Errorf("init terminal input: %w", err)
		}
		defer listener.Close()

		listener.AsyncPrintln("devforge shell. Commands: create <title> | <description>, list, show <id>, run <id>, logs <id>, exit")

		for {
			input, err := listener.GetInput()
			if err != nil {
				return nil
			}
			if input == "" {
				continue
			}
			fields := strings.SplitN(input, " ", 2)
			command := strings.ToLower(fields[0])
			rest := ""
			if len(fields) > 1 {
				rest = strings.TrimSpace(fields[1])
			}

			switch command {
			case "exit", "quit":
				return nil

			case "create":
				parts := strings.SplitN(rest, "|", 2)
				if len(parts) != 2 {
					listener.AsyncPrintln("Usage: create <title> | <description>")
					continue
				}
				id, err := rt.orch.CreateMission(cmd.Context(), strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[create FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("Mission %d created.", id))

			case "list":
				missions, err := rt.orch.ListMissions(cmd.Context())
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[list FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatMissionList(missions))

			case "show":
				id, err := parseMissionID(rest)
				if err != nil {
					listener.AsyncPrintln(err.Error())
					continue
				}
				m, steps, err := rt.orch.GetMission(cmd.Context(), id)
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[show FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatMission(m, steps))

			case "run":
				id, err := parseMissionID(rest)
				if err != nil {
					listener.AsyncPrintln(err.Error())
					continue
				}
				listener.AsyncPrintln(fmt.Sprintf("Executing next step of mission %d ...", id))
				out, err := rt.orch.ExecuteStep(cmd.Context(), id)
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[step FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatOutcome(out))

			case "logs":
				id, err := parseMissionID(rest)
				if err != nil {
					listener.AsyncPrintln(err.Error())
					continue
				}
				logs, err := rt.orch.GetLogs(cmd.Context(), id)
				if err != nil {
					listener.AsyncPrintln(fmt.Sprintf("[logs FAILED] %v", err))
					continue
				}
				listener.AsyncPrintln(display.FormatLogs(logs))

			default:
				listener.AsyncPrintln(fmt.Sprintf("Unknown command: %s", command))
			}
		}
	},
}
