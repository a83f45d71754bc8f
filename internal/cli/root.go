package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"devforge/internal/api"
	"devforge/internal/archive"
	"devforge/internal/config"
	"devforge/internal/display"
	"devforge/internal/llm"
	"devforge/internal/orchestrator"
	"devforge/internal/sandbox"
	"devforge/internal/store"
)

var cfg config.Config

// runtime bundles the wired engine for one command invocation.
type runtime struct {
	store *store.SQLiteStore
	orch  *orchestrator.Orchestrator
}

func newRuntime() (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	client, err := llm.New(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	orch := orchestrator.New(st, client, sandbox.NewWriter(cfg.FilesDir, cfg.MaxFilesPerStep))
	return &runtime{store: st, orch: orch}, nil
}

func (r *runtime) close() {
	_ = r.store.Close()
}

func parseMissionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mission id: %s", arg)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:   "devforge",
	Short: "Mission-driven code generation agent",
	Long:  `devforge drives a user-declared mission through discrete AI-generated steps, materializing generated files in a per-mission sandbox.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		return api.Serve(context.Background(), cfg.ListenAddr, rt.orch)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <title> <description>",
	Short: "Create a new mission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		id, err := rt.orch.CreateMission(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Mission %d created.\n", id)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List missions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		missions, err := rt.orch.ListMissions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(display.FormatMissionList(missions))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a mission and its steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMissionID(args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		m, steps, err := rt.orch.GetMission(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(display.FormatMission(m, steps))
		return nil
	},
}

var runFollow bool

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Execute the next mission step",
	Long:  `Executes exactly one step. With --follow, keeps invoking steps until the mission completes or a step fails.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMissionID(args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		for {
			out, err := rt.orch.ExecuteStep(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(display.FormatOutcome(out))
			if !runFollow || out.MissionCompleted || out.AlreadyCompleted {
				return nil
			}
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show a mission's log entries, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMissionID(args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		logs, err := rt.orch.GetLogs(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(display.FormatLogs(logs))
		return nil
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a mission's generated files as a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMissionID(args[0])
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		if _, _, err := rt.orch.GetMission(cmd.Context(), id); err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("mission_%d.zip", id)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := archive.WriteZip(rt.orch.MissionRoot(id), f); err != nil {
			os.Remove(out)
			return err
		}
		fmt.Printf("Archive written to %s\n", out)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runFollow, "follow", false, "keep executing steps until the mission completes")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output zip path")
	rootCmd.AddCommand(serveCmd, createCmd, listCmd, showCmd, runCmd, logsCmd, exportCmd, shellCmd)
}

// Execute runs the CLI with the given configuration.
func Execute(c config.Config) {
	cfg = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
