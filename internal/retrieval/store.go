package retrieval

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"skillgap/internal/types"
)

// storedChunk is a chunk with its embedding as persisted on disk.
type storedChunk struct {
	Doc    types.Document
	Vector []float32
}

// store persists embedded chunks in a SQLite file.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("index: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: init schema: %w", err)
	}
	return &store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_type  TEXT NOT NULL,
			source    TEXT NOT NULL,
			content   TEXT NOT NULL,
			metadata  TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// embedderName returns the embedder recorded at the last build, or "".
func (s *store) embedderName(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'embedder'`).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

func (s *store) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// replace discards every stored chunk and writes the new set in one transaction.
func (s *store) replace(ctx context.Context, embedder string, chunks []storedChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (doc_type, source, content, metadata, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		meta, err := json.Marshal(c.Doc.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			c.Doc.Metadata[types.MetaType],
			c.Doc.Metadata[types.MetaSource],
			c.Doc.Content,
			string(meta),
			encodeVector(c.Vector),
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('embedder', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, embedder); err != nil {
		return err
	}
	return tx.Commit()
}

// load returns every chunk in insertion order.
func (s *store) load(ctx context.Context) ([]storedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content, metadata, embedding FROM chunks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []storedChunk
	for rows.Next() {
		var (
			content, meta string
			blob          []byte
		)
		if err := rows.Scan(&content, &meta, &blob); err != nil {
			return nil, err
		}
		c := storedChunk{Doc: types.Document{Content: content}}
		if err := json.Unmarshal([]byte(meta), &c.Doc.Metadata); err != nil {
			return nil, fmt.Errorf("index: corrupt metadata: %w", err)
		}
		if c.Vector, err = decodeVector(blob); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("index: corrupt embedding of %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
