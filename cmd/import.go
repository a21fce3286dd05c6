package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/artifact"
	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy file artifacts into a SQLite knowledge base",
	Long: `Read entries (JSON or YAML) and optional embeddings from files, validate
them as a snapshot would, and replace the contents of a SQLite database.

Examples:
  advisor import --entries data/kb_entries.json --embeddings data/kb_embeddings.json --db data/kb.sqlite`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("entries", "data/kb_entries.json", "entries file (.json, .yaml)")
	importCmd.Flags().String("embeddings", "", "embeddings file (optional)")
	importCmd.Flags().String("db", "data/kb.sqlite", "SQLite database to write")
}

// importSummary is printed after a successful import.
type importSummary struct {
	Database  string `json:"database"`
	Entries   int    `json:"entries"`
	Dimension int    `json:"dimension"`
}

func runImport(cmd *cobra.Command, _ []string) error {
	defer logger.HandlePanic()
	logger.SetCommand("import")

	entriesPath, _ := cmd.Flags().GetString("entries")
	embeddingsPath, _ := cmd.Flags().GetString("embeddings")
	dbPath, _ := cmd.Flags().GetString("db")

	summary, err := importArtifacts(context.Background(), afero.NewOsFs(), entriesPath, embeddingsPath, dbPath)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(summary)
	}
	fmt.Printf("Imported %d entries into %s", summary.Entries, summary.Database)
	if summary.Dimension > 0 {
		fmt.Printf(" (embedding dimension %d)", summary.Dimension)
	}
	fmt.Println()
	return nil
}

func importArtifacts(ctx context.Context, fs afero.Fs, entriesPath, embeddingsPath, dbPath string) (importSummary, error) {
	entries, err := artifact.NewFileSource(fs, entriesPath, embeddingsPath).Load(ctx)
	if err != nil {
		return importSummary{}, err
	}

	// Refuse to write anything the engine would not install.
	snap, err := knowledge.NewSnapshot(1, entries)
	if err != nil {
		return importSummary{}, err
	}

	if err := artifact.NewSQLiteSource(dbPath).Replace(ctx, entries); err != nil {
		return importSummary{}, fmt.Errorf("write %s: %w", dbPath, err)
	}
	return importSummary{Database: dbPath, Entries: snap.Len(), Dimension: snap.Dimension}, nil
}
