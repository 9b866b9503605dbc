package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/agentmem/internal/model"
)

// timeFormat is fixed-width UTC so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", model.ErrStorageUnavailable, err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id               TEXT PRIMARY KEY,
		content          TEXT NOT NULL,
		kind             TEXT NOT NULL DEFAULT 'episodic',
		agent_id         TEXT NOT NULL DEFAULT '',
		project_id       TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		importance       INTEGER NOT NULL DEFAULT 2,
		tags             TEXT,
		context          TEXT,
		access_count     INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Add(ctx context.Context, r *model.Record) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("%w: record without id", model.ErrInvalidInput)
	}
	tagsJSON, err := encodeTags(r.Tags)
	if err != nil {
		return err
	}
	ctxJSON, err := encodeContext(r.Context)
	if err != nil {
		return err
	}
	var lastAccessed *string
	if r.LastAccessed != nil {
		v := formatTime(*r.LastAccessed)
		lastAccessed = &v
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, kind, agent_id, project_id, created_at, importance, tags, context, access_count, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   content = excluded.content,
		   kind = excluded.kind,
		   tags = excluded.tags,
		   context = excluded.context`,
		r.ID, r.Content, string(r.Kind), r.AgentID, r.ProjectID, formatTime(r.Timestamp),
		int(r.Importance), tagsJSON, ctxJSON, r.AccessCount, lastAccessed)
	if err != nil {
		return fmt.Errorf("%w: insert memory: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

const selectColumns = `SELECT id, content, kind, agent_id, project_id, created_at, importance, tags, context, access_count, last_accessed_at FROM memories`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, p model.Patch) (*model.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	r, err := scanRecord(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	r.Apply(p)

	tagsJSON, err := encodeTags(r.Tags)
	if err != nil {
		return nil, err
	}
	ctxJSON, err := encodeContext(r.Context)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET content = ?, kind = ?, tags = ?, context = ? WHERE id = ?`,
		r.Content, string(r.Kind), tagsJSON, ctxJSON, id); err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete memory: %v", model.ErrStorageUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) RecordAccess(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	ts := formatTime(at)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := []any{ts, ts}
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1,
		   last_accessed_at = CASE WHEN last_accessed_at IS NULL OR last_accessed_at < ? THEN ? ELSE last_accessed_at END
		 WHERE id IN (`+placeholders+`)`, args...)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*model.Record, error) {
	var r model.Record
	var kind, createdAt string
	var importance int
	var tagsJSON, ctxJSON, lastAccessed sql.NullString

	err := row.Scan(
		&r.ID, &r.Content, &kind, &r.AgentID, &r.ProjectID, &createdAt,
		&importance, &tagsJSON, &ctxJSON, &r.AccessCount, &lastAccessed,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = model.Kind(kind)
	r.Importance = model.Importance(importance).Clamp()
	r.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339Nano, lastAccessed.String)
		r.LastAccessed = &t
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &r.Tags)
	}
	if ctxJSON.Valid {
		json.Unmarshal([]byte(ctxJSON.String), &r.Context)
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func encodeTags(tags []string) (*string, error) {
	tags = model.NormalizeTags(tags)
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	v := string(b)
	return &v, nil
}

func encodeContext(ctx map[string]any) (*string, error) {
	if len(ctx) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: encode context: %v", model.ErrInvalidInput, err)
	}
	v := string(b)
	return &v, nil
}
