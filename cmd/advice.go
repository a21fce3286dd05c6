package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/ui"
)

var adviceCmd = &cobra.Command{
	Use:   "advice <query>",
	Short: "Get treatment advice, optionally grounded in a diagnosis",
	Long: `Ask the advisor for free-form advice.

With --diagnosis the advice is grounded in a crop disease diagnosis JSON
file. Without a configured LLM provider, or when generation fails, the
advice comes from the offline template.

Examples:
  advisor advice "what should I spray first"
  advisor advice "is this serious" --diagnosis leaf_scan.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdvice,
}

func init() {
	rootCmd.AddCommand(adviceCmd)
	adviceCmd.Flags().StringP("diagnosis", "d", "", "path to a diagnosis context JSON file")
}

func runAdvice(cmd *cobra.Command, args []string) error {
	defer logger.HandlePanic()
	logger.SetCommand("advice")

	query := strings.Join(args, " ")
	diagPath, _ := cmd.Flags().GetString("diagnosis")

	diag, err := readDiagnosis(afero.NewOsFs(), diagPath)
	if err != nil {
		// Invalid diagnoses are dropped, the same as over HTTP.
		PrintError("Ignoring unreadable diagnosis file", err)
		diag = nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := newServices(ctx, cfg, "warn", os.Stderr)
	if err != nil {
		return err
	}

	out := rt.engine.Advice(ctx, engine.AdviceRequest{Query: query, Diagnosis: diag})
	if isJSON() {
		return printJSON(out)
	}
	fmt.Print(ui.RenderAdvice(out))
	return nil
}

// readDiagnosis loads a diagnosis context from path. An empty path yields nil.
func readDiagnosis(fs afero.Fs, path string) (*advisor.DiagnosisContext, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read diagnosis: %w", err)
	}
	return advisor.ParseDiagnosis(raw)
}
