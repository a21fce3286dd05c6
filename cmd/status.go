package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load the knowledge base and report what the engine would serve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		defer logger.HandlePanic()
		logger.SetCommand("status")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		rt, err := newServices(ctx, cfg, "warn", os.Stderr)
		if err != nil {
			return err
		}
		loadErr := rt.loadSnapshot(ctx)

		st := rt.engine.Status()
		if isJSON() {
			if err := printJSON(st); err != nil {
				return err
			}
			return loadErr
		}
		fmt.Print(ui.RenderStatus(st))
		return loadErr
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
