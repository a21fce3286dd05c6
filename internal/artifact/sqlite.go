package artifact

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite"

	"github.com/agrisense/advisor/internal/knowledge"
)

const kbSchema = `
CREATE TABLE IF NOT EXISTS kb_entries (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL DEFAULT '',
	answer TEXT NOT NULL,
	tags TEXT,
	embedding BLOB,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kb_entries_position ON kb_entries(position);
`

// SQLiteSource reads entries from the kb_entries table. Embeddings are
// little-endian float32 blobs; tags are a JSON array.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource creates a source for the database at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// Paths returns the database file, for watching.
func (s *SQLiteSource) Paths() []string {
	return []string{s.path}
}

func (s *SQLiteSource) Describe() string {
	return "sqlite:" + s.path
}

func (s *SQLiteSource) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Load reads every entry in position order.
func (s *SQLiteSource) Load(ctx context.Context) ([]knowledge.Entry, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, s.path)
		}
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `
		SELECT id, question, answer, tags, embedding
		FROM kb_entries
		ORDER BY position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []knowledge.Entry
	for rows.Next() {
		var (
			e         knowledge.Entry
			tags      sql.NullString
			embedding []byte
		)
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &tags, &embedding); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
				return nil, fmt.Errorf("entry %q tags: %w", e.ID, err)
			}
		}
		if len(embedding) > 0 {
			if len(embedding)%4 != 0 {
				return nil, fmt.Errorf("%w: entry %q embedding blob has %d bytes",
					knowledge.ErrInvalidSnapshot, e.ID, len(embedding))
			}
			e.Embedding = decodeVector(embedding)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Replace writes entries as the full table contents in one transaction.
func (s *SQLiteSource) Replace(ctx context.Context, entries []knowledge.Entry) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, kbSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM kb_entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kb_entries (id, question, answer, tags, embedding, position)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range entries {
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("entry %q tags: %w", e.ID, err)
		}
		var blob []byte
		if len(e.Embedding) > 0 {
			blob = encodeVector(e.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Question, e.Answer, string(tags), blob, i); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
