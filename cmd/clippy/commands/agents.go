package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clippy-ai/clippy/internal/agent"
	"github.com/clippy-ai/clippy/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List available subagent types",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveWorkDir()
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}

		defs := agent.LoadSubagents(cfg, dir)
		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		for _, name := range names {
			def := defs[name]
			if def.Description != "" {
				fmt.Fprintf(out, "%-16s %s\n", name, def.Description)
			} else {
				fmt.Fprintln(out, name)
			}
		}
		return nil
	},
}
