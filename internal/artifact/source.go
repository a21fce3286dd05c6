package artifact

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/agrisense/advisor/internal/knowledge"
)

// Source kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Source is a watchable artifact source.
type Source interface {
	Load(ctx context.Context) ([]knowledge.Entry, error)
	Describe() string
	Paths() []string
}

// Settings selects and locates an artifact source.
type Settings struct {
	Kind           string
	EntriesPath    string
	EmbeddingsPath string
	SQLitePath     string
}

// Open returns the source described by s, reading files from fs.
func Open(fs afero.Fs, s Settings) (Source, error) {
	switch s.Kind {
	case KindFile, "":
		if s.EntriesPath == "" {
			return nil, fmt.Errorf("file source needs an entries path")
		}
		return NewFileSource(fs, s.EntriesPath, s.EmbeddingsPath), nil
	case KindSQLite:
		if s.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite source needs a database path")
		}
		return NewSQLiteSource(s.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unknown artifact source %q (want %s or %s)", s.Kind, KindFile, KindSQLite)
	}
}
