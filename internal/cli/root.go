package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/fetchview/internal/config"
	"github.com/rshade/fetchview/internal/logging"
)

// ErrNotTerminal is returned by interactive commands run without a terminal.
var ErrNotTerminal = errors.New("an interactive terminal is required")

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// rootState carries what PersistentPreRunE prepares to the subcommands.
type rootState struct {
	cfg *config.Config
	// logToFile is set when logs go to a file rather than the terminal.
	logToFile bool
}

// NewRootCmd creates the root Cobra command for the fetchview CLI.
// It loads configuration, wires up logging and registers the demo and
// snapshot subcommands.
func NewRootCmd(ver string) *cobra.Command {
	state := &rootState{}
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "fetchview",
		Short:         "Preview async fetch lifecycle state",
		Long:          "fetchview drives loaders through idle, loading, loaded and error states against simulated sources.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			projectFlag, _ := cmd.Flags().GetString("project-dir")
			cwd, _ := os.Getwd()
			projectDir := config.ResolveProjectDir(cmd.Context(), projectFlag, cwd)

			cfg, err := config.LoadWithProject(cfgPath, projectDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			state.cfg = cfg

			result := setupLogging(cmd, cfg.Logging)
			logResult = &result
			state.logToFile = result.UsingFile
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logResult != nil {
				return logResult.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (default ~/.fetchview/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "",
		"project directory whose .fetchview/config.yaml overlays the global config (default: nearest parent with one)")
	cmd.AddCommand(newDemoCmd(state), newSnapshotCmd(state))

	return cmd
}

const rootCmdExample = `  # Open the interactive preview with three panels
  fetchview demo --panels 3

  # Make every second fetch fail and watch retry recover it
  fetchview demo --fail-every 2

  # Load five panels headlessly, retrying failures twice, as JSON lines
  fetchview snapshot --panels 5 --retries 2 --output json

  # Dump loader metrics after a snapshot
  fetchview snapshot --metrics`
