// Package artifact loads knowledge entries and their precomputed embeddings
// from the artifact pair written by the offline builder, or from a SQLite
// database, and watches those artifacts for changes.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/agrisense/advisor/internal/knowledge"
)

// ErrArtifactMissing is returned when a configured artifact does not exist.
var ErrArtifactMissing = errors.New("artifact missing")

// record is the on-disk shape of one entry.
type record struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"answer" yaml:"answer"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// embeddingSet is the keyed embeddings format.
type embeddingSet struct {
	Model     string               `json:"model"`
	Dimension int                  `json:"dimension"`
	Vectors   map[string][]float32 `json:"vectors"`
}

// FileSource reads an entries file (JSON or YAML) and an optional
// embeddings file (JSON). Without an embeddings file every entry is loaded
// without a vector and ranking runs on keywords alone.
type FileSource struct {
	fs             afero.Fs
	entriesPath    string
	embeddingsPath string
}

// NewFileSource creates a source reading from fs.
// Use afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
func NewFileSource(fs afero.Fs, entriesPath, embeddingsPath string) *FileSource {
	return &FileSource{
		fs:             fs,
		entriesPath:    entriesPath,
		embeddingsPath: embeddingsPath,
	}
}

// Paths returns the files this source reads, for watching.
func (s *FileSource) Paths() []string {
	paths := []string{s.entriesPath}
	if s.embeddingsPath != "" {
		paths = append(paths, s.embeddingsPath)
	}
	return paths
}

func (s *FileSource) Describe() string {
	if s.embeddingsPath == "" {
		return "file:" + s.entriesPath
	}
	return fmt.Sprintf("file:%s+%s", s.entriesPath, s.embeddingsPath)
}

// Load reads both files and pairs vectors with entries.
func (s *FileSource) Load(ctx context.Context) ([]knowledge.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.loadEntries()
	if err != nil {
		return nil, err
	}
	if s.embeddingsPath == "" {
		return entries, nil
	}

	data, err := s.read(s.embeddingsPath)
	if err != nil {
		return nil, err
	}
	if err := attachEmbeddings(entries, data); err != nil {
		return nil, fmt.Errorf("embeddings %s: %w", s.embeddingsPath, err)
	}
	return entries, nil
}

func (s *FileSource) loadEntries() ([]knowledge.Entry, error) {
	data, err := s.read(s.entriesPath)
	if err != nil {
		return nil, err
	}

	var records []record
	switch strings.ToLower(filepath.Ext(s.entriesPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parse entries %s: %w", s.entriesPath, err)
	}

	entries := make([]knowledge.Entry, len(records))
	for i, r := range records {
		entries[i] = knowledge.Entry{
			ID:       strings.TrimSpace(r.ID),
			Question: r.Question,
			Answer:   r.Answer,
			Tags:     r.Tags,
		}
	}
	return entries, nil
}

func (s *FileSource) read(path string) ([]byte, error) {
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// attachEmbeddings accepts either an array aligned with entry order or an
// object keyed by entry id. Entries without a vector are left empty; the
// snapshot build rejects a partially embedded set.
func attachEmbeddings(entries []knowledge.Entry, data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty embeddings file", knowledge.ErrInvalidSnapshot)
	}

	if trimmed[0] == '[' {
		var vectors [][]float32
		if err := json.Unmarshal(trimmed, &vectors); err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		if len(vectors) != len(entries) {
			return fmt.Errorf("%w: %d vectors for %d entries",
				knowledge.ErrInvalidSnapshot, len(vectors), len(entries))
		}
		for i := range entries {
			entries[i].Embedding = vectors[i]
		}
		return nil
	}

	var set embeddingSet
	if err := json.Unmarshal(trimmed, &set); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	for i := range entries {
		vec, ok := set.Vectors[entries[i].ID]
		if !ok {
			continue
		}
		if set.Dimension > 0 && len(vec) != set.Dimension {
			return fmt.Errorf("%w: vector for %q has dimension %d, declared %d",
				knowledge.ErrInvalidSnapshot, entries[i].ID, len(vec), set.Dimension)
		}
		entries[i].Embedding = vec
	}
	return nil
}
