// Package commands provides the clippy CLI commands.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clippy-ai/clippy/internal/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

var (
	logLevel  string
	printLogs bool
	workDir   string
)

var rootCmd = &cobra.Command{
	Use:   "clippy",
	Short: "Clippy - a CLI coding assistant",
	Long: `Clippy is an AI coding assistant for the terminal. It looks like
you're trying to get some work done - Clippy reads, edits, and runs code
on your behalf, asking before anything destructive.

Run 'clippy run "your task"' for a one-shot request or
'clippy run -i' for an interactive session.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var out io.Writer = os.Stderr
		if !printLogs {
			out = io.Discard
		}
		logging.Init(logging.Config{
			Level:  logging.ParseLevel(logLevel),
			Output: out,
			Pretty: true,
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", "", "Working directory (defaults to cwd)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("clippy %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(agentsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func resolveWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}
