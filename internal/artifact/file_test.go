package artifact

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/advisor/internal/knowledge"
)

const entriesJSON = `[
  {"id": "tomato-sun", "question": "How to grow tomatoes", "answer": "Tomatoes need full sun.", "tags": ["tomato"]},
  {"id": "rice-water", "question": "When to water rice", "answer": "Keep paddy flooded.", "tags": ["rice"]}
]`

const entriesYAML = `
- id: tomato-sun
  question: How to grow tomatoes
  answer: Tomatoes need full sun.
  tags: [tomato]
- id: rice-water
  question: When to water rice
  answer: Keep paddy flooded.
  tags: [rice]
`

func TestFileSource_LoadJSONWithKeyedEmbeddings(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/entries.json", []byte(entriesJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/kb/embeddings.json", []byte(`{
		"model": "text-embedding-3-small",
		"dimension": 3,
		"vectors": {"rice-water": [0, 1, 0], "tomato-sun": [1, 0, 0]}
	}`), 0o644))

	src := NewFileSource(fs, "/kb/entries.json", "/kb/embeddings.json")
	entries, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "tomato-sun", entries[0].ID)
	assert.Equal(t, []string{"tomato"}, entries[0].Tags)
	assert.Equal(t, []float32{1, 0, 0}, entries[0].Embedding)
	assert.Equal(t, []float32{0, 1, 0}, entries[1].Embedding)
	assert.Equal(t, []string{"/kb/entries.json", "/kb/embeddings.json"}, src.Paths())

	_, err = knowledge.NewSnapshot(1, entries)
	assert.NoError(t, err)
}

func TestFileSource_LoadYAMLWithAlignedEmbeddings(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/entries.yaml", []byte(entriesYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/kb/embeddings.json", []byte(`[[0.5, 0.5], [0.1, 0.9]]`), 0o644))

	entries, err := NewFileSource(fs, "/kb/entries.yaml", "/kb/embeddings.json").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Keep paddy flooded.", entries[1].Answer)
	assert.Equal(t, []float32{0.1, 0.9}, entries[1].Embedding)
}

func TestFileSource_NoEmbeddingsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/entries.json", []byte(entriesJSON), 0o644))

	src := NewFileSource(fs, "/kb/entries.json", "")
	entries, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entries[0].Embedding)
	assert.Equal(t, "file:/kb/entries.json", src.Describe())
}

func TestFileSource_Errors(t *testing.T) {
	tests := []struct {
		name       string
		entries    string
		embeddings string
		wantErr    error
	}{
		{name: "missing entries file", wantErr: ErrArtifactMissing},
		{name: "missing embeddings file", entries: entriesJSON, wantErr: ErrArtifactMissing},
		{name: "vector count mismatch", entries: entriesJSON, embeddings: `[[1, 0]]`, wantErr: knowledge.ErrInvalidSnapshot},
		{name: "declared dimension mismatch", entries: entriesJSON,
			embeddings: `{"dimension": 2, "vectors": {"tomato-sun": [1, 0, 0]}}`, wantErr: knowledge.ErrInvalidSnapshot},
		{name: "empty embeddings file", entries: entriesJSON, embeddings: "  ", wantErr: knowledge.ErrInvalidSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.entries != "" {
				require.NoError(t, afero.WriteFile(fs, "/kb/entries.json", []byte(tt.entries), 0o644))
			}
			if tt.embeddings != "" {
				require.NoError(t, afero.WriteFile(fs, "/kb/embeddings.json", []byte(tt.embeddings), 0o644))
			}

			_, err := NewFileSource(fs, "/kb/entries.json", "/kb/embeddings.json").Load(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileSource_MalformedEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/entries.json", []byte(`{"not": "an array"}`), 0o644))

	_, err := NewFileSource(fs, "/kb/entries.json", "").Load(context.Background())
	assert.ErrorContains(t, err, "parse entries")
}

func TestFileSource_PartialKeyedEmbeddingsRejectedBySnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/entries.json", []byte(entriesJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/kb/embeddings.json", []byte(`{"vectors": {"tomato-sun": [1, 0]}}`), 0o644))

	entries, err := NewFileSource(fs, "/kb/entries.json", "/kb/embeddings.json").Load(context.Background())
	require.NoError(t, err)

	_, err = knowledge.NewSnapshot(1, entries)
	assert.ErrorIs(t, err, knowledge.ErrInvalidSnapshot)
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()

	src, err := Open(fs, Settings{Kind: KindFile, EntriesPath: "/kb/entries.json"})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = Open(fs, Settings{Kind: KindSQLite, SQLitePath: "/kb/kb.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite:/kb/kb.db", src.Describe())

	_, err = Open(fs, Settings{Kind: KindSQLite})
	assert.Error(t, err)

	_, err = Open(fs, Settings{Kind: "s3"})
	assert.ErrorContains(t, err, "unknown artifact source")
}
