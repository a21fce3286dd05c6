package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/ui"
)

var greetingCmd = &cobra.Command{
	Use:   "greeting",
	Short: "Print the opening greeting for a language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		// Greetings need no knowledge base or provider.
		eng, err := engine.New(engine.DefaultConfig())
		if err != nil {
			return err
		}
		g := eng.Greeting(lang)
		if isJSON() {
			return printJSON(g)
		}
		fmt.Print(ui.RenderGreeting(g))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(greetingCmd)
	greetingCmd.Flags().StringP("lang", "l", "en", "language tag (en, hi, es)")
}
