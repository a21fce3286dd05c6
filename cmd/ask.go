package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/ui"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Long: `Rank the knowledge base against a question and print the best answers.

Examples:
  advisor ask "how often should I water tomatoes"
  advisor ask "yellow leaves on rice" -k 5
  advisor ask "¿cuándo regar el tomate?" --lang es --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntP("top-k", "k", 0, "number of results (default engine.default_top_k)")
	askCmd.Flags().StringP("lang", "l", "en", "answer language (en, hi, es)")
	askCmd.Flags().StringP("session", "s", "", "session id for conversational phrasing")
}

func runAsk(cmd *cobra.Command, args []string) error {
	defer logger.HandlePanic()
	logger.SetCommand("ask")

	question := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	lang, _ := cmd.Flags().GetString("lang")
	sessionID, _ := cmd.Flags().GetString("session")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := newServices(ctx, cfg, "warn", os.Stderr)
	if err != nil {
		return err
	}
	if err := rt.loadSnapshot(ctx); err != nil {
		return err
	}

	resp, err := rt.engine.Ask(ctx, engine.AskRequest{
		Question:  question,
		TopK:      topK,
		SessionID: sessionID,
		Language:  lang,
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}
	fmt.Print(ui.RenderAsk(resp))
	return nil
}
