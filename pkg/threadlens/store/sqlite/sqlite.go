package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; a single connection also keeps the pragmas below in effect
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	snapshot TEXT NOT NULL,
	key TEXT NOT NULL,
	seq INTEGER NOT NULL,
	post_id TEXT,
	title TEXT NOT NULL,
	selftext TEXT,
	created_utc REAL,
	author TEXT,
	url TEXT,
	domain TEXT,
	PRIMARY KEY(snapshot, key),
	FOREIGN KEY(snapshot) REFERENCES snapshots(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_posts_seq ON posts(snapshot, seq);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	snapshot TEXT NOT NULL,
	created_at TEXT NOT NULL,
	params TEXT NOT NULL,
	rows INTEGER NOT NULL,
	cols INTEGER NOT NULL,
	sparsity REAL NOT NULL,
	top_terms TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_snapshot ON runs(snapshot, id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertPosts inserts or replaces posts of a snapshot in one transaction.
// Replaced posts keep their original position.
func (s *sqliteStore) UpsertPosts(ctx context.Context, snapshot string, ps []posts.Post) error {
	if snapshot == "" {
		return fmt.Errorf("%w: empty snapshot name", internalerr.ErrPrecondition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshots (name, updated_at) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET updated_at=excluded.updated_at;
`, snapshot, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) FROM posts WHERE snapshot = ?`, snapshot,
	).Scan(&seq); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (snapshot, key, seq, post_id, title, selftext, created_utc, author, url, domain)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(snapshot, key) DO UPDATE SET
	post_id=excluded.post_id,
	title=excluded.title,
	selftext=excluded.selftext,
	created_utc=excluded.created_utc,
	author=excluded.author,
	url=excluded.url,
	domain=excluded.domain;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range ps {
		seq++
		if _, err := stmt.ExecContext(ctx,
			snapshot, store.PostKey(p), seq,
			p.ID, p.Title, p.Selftext, p.CreatedUTC, p.Author, p.URL, p.Domain,
		); err != nil {
			return fmt.Errorf("upsert post %q: %w", store.PostKey(p), err)
		}
	}

	return tx.Commit()
}

// Posts returns a snapshot's posts in insertion order
func (s *sqliteStore) Posts(ctx context.Context, snapshot string) ([]posts.Post, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE name = ?`, snapshot).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %q", internalerr.ErrNotFound, snapshot)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT post_id, title, selftext, created_utc, author, url, domain
FROM posts
WHERE snapshot = ?
ORDER BY seq;
`, snapshot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []posts.Post{}
	for rows.Next() {
		var p posts.Post
		var id, selftext, author, url, domain sql.NullString
		var created sql.NullFloat64
		if err := rows.Scan(&id, &p.Title, &selftext, &created, &author, &url, &domain); err != nil {
			return nil, err
		}
		p.ID, p.Selftext, p.Author = id.String, selftext.String, author.String
		p.URL, p.Domain, p.CreatedUTC = url.String, domain.String, created.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}

// Snapshots lists snapshots by name with their post counts
func (s *sqliteStore) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.name, s.updated_at, COUNT(p.key)
FROM snapshots s
LEFT JOIN posts p ON p.snapshot = s.name
GROUP BY s.name
ORDER BY s.name;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Snapshot
	for rows.Next() {
		var snap store.Snapshot
		var updated string
		if err := rows.Scan(&snap.Name, &updated, &snap.Posts); err != nil {
			return nil, err
		}
		if snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SaveRun inserts or updates a run
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrPrecondition)
	}
	paramsJSON, err := json.Marshal(r.Params)
	if err != nil {
		return err
	}
	termsJSON, err := json.Marshal(r.TopTerms)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, snapshot, created_at, params, rows, cols, sparsity, top_terms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	snapshot=excluded.snapshot,
	created_at=excluded.created_at,
	params=excluded.params,
	rows=excluded.rows,
	cols=excluded.cols,
	sparsity=excluded.sparsity,
	top_terms=excluded.top_terms;
`, r.ID, r.Snapshot, r.CreatedAt.UTC().Format(time.RFC3339Nano), string(paramsJSON),
		r.Rows, r.Cols, r.Sparsity, string(termsJSON))
	return err
}

const runColumns = `id, snapshot, created_at, params, rows, cols, sparsity, top_terms`

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("%w: run %q", internalerr.ErrNotFound, id)
	}
	return r, err
}

// Runs retrieves the newest runs of a snapshot first. An empty snapshot
// matches every run.
func (s *sqliteStore) Runs(ctx context.Context, snapshot string, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT `+runColumns+`
FROM runs
WHERE ? = '' OR snapshot = ?
ORDER BY id DESC
LIMIT ?;
`, snapshot, snapshot, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if snapshot != "" && len(runs) == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE name = ?`, snapshot).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: snapshot %q", internalerr.ErrNotFound, snapshot)
		}
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var r store.Run
	var created, paramsJSON, termsJSON string
	if err := sc.Scan(&r.ID, &r.Snapshot, &created, &paramsJSON, &r.Rows, &r.Cols, &r.Sparsity, &termsJSON); err != nil {
		return store.Run{}, err
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Run{}, err
	}
	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return store.Run{}, err
	}
	if err := json.Unmarshal([]byte(termsJSON), &r.TopTerms); err != nil {
		return store.Run{}, err
	}
	return r, nil
}
