package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/provider"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available providers and models",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveWorkDir()
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		providers, err := provider.FromConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("no usable model providers: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, p := range providers.List() {
			fmt.Fprintf(out, "%s (%s)\n", p.Name(), p.ID())
			for _, m := range p.Models() {
				marker := " "
				if cfg.Model == p.ID()+"/"+m.ID {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %s/%s\n", marker, p.ID(), m.ID)
			}
		}
		return nil
	},
}
