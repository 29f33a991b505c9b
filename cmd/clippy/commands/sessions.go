package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clippy-ai/clippy/internal/agent"
	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/storage"
)

// sessionStore opens the conversation store without the rest of the stack,
// so sessions can be listed with no provider configured.
func sessionStore() (*agent.Store, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}
	return agent.NewStore(storage.New(paths.StoragePath())), nil
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}

		conversations, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(conversations) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
			return nil
		}

		for _, conv := range conversations {
			updated := time.UnixMilli(conv.UpdatedAt).Format("2006-01-02 15:04")
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %3d messages  %s\n", conv.ID, updated, conv.MessageCount, conv.Title)
		}
		return nil
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsRmCmd)
}
