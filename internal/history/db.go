package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/0xjjjjjj/sortbox/internal/organizer"
)

const timeLayout = time.RFC3339Nano

// DB is the persisted undo stack. Batches are never deleted; undoing one
// stamps undone_at so it drops off the stack but stays searchable.
type DB struct {
	db *sql.DB
}

// BatchSummary is one row of the history listing.
type BatchSummary struct {
	ID        string     `json:"id"`
	Root      string     `json:"root"`
	CreatedAt time.Time  `json:"created_at"`
	Files     int        `json:"files"`
	Size      int64      `json:"size"`
	UndoneAt  *time.Time `json:"undone_at,omitempty"`
}

// Move is one recorded file move.
type Move struct {
	BatchID   string    `json:"batch_id"`
	Original  string    `json:"original"`
	Final     string    `json:"final"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Undone    bool      `json:"undone"`
}

var _ organizer.UndoLog = (*DB)(nil)

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps sqlite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			created_at TEXT NOT NULL,
			undone_at TEXT,
			folders JSON
		);
		CREATE TABLE IF NOT EXISTS moves (
			id INTEGER PRIMARY KEY,
			batch_id TEXT NOT NULL REFERENCES batches(id),
			seq INTEGER NOT NULL,
			final_path TEXT NOT NULL,
			original_path TEXT NOT NULL,
			file_size INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_moves_batch ON moves(batch_id, seq);
		CREATE INDEX IF NOT EXISTS idx_moves_original ON moves(original_path);
	`)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Push stores a batch on top of the stack. Empty batches are not stored.
func (d *DB) Push(ctx context.Context, b *organizer.Batch) error {
	if b.Empty() {
		return nil
	}

	folders, err := json.Marshal(b.Folders)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, root, created_at, folders) VALUES (?, ?, ?, ?)
	`, b.ID, b.Root, b.CreatedAt.UTC().Format(timeLayout), string(folders)); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO moves (batch_id, seq, final_path, original_path, file_size) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range b.Records {
		if _, err := stmt.ExecContext(ctx, b.ID, i, r.Final, r.Original, r.Size); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
	}

	return tx.Commit()
}

func (d *DB) Latest(ctx context.Context) (*organizer.Batch, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, root, created_at, folders FROM batches
		WHERE undone_at IS NULL
		ORDER BY rowid DESC LIMIT 1
	`)

	var b organizer.Batch
	var ts string
	var folders sql.NullString
	if err := row.Scan(&b.ID, &b.Root, &ts, &folders); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, organizer.ErrNothingToUndo
		}
		return nil, err
	}
	b.CreatedAt, _ = time.Parse(timeLayout, ts)
	if folders.Valid {
		json.Unmarshal([]byte(folders.String), &b.Folders)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT final_path, original_path, file_size FROM moves
		WHERE batch_id = ? ORDER BY seq
	`, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r organizer.MoveRecord
		var size sql.NullInt64
		if err := rows.Scan(&r.Final, &r.Original, &size); err != nil {
			return nil, err
		}
		r.Size = size.Int64
		b.Records = append(b.Records, r)
	}
	return &b, rows.Err()
}

// Remove takes a batch off the undo stack.
func (d *DB) Remove(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE batches SET undone_at = ? WHERE id = ? AND undone_at IS NULL
	`, time.Now().UTC().Format(timeLayout), id)
	return err
}

// List returns the most recent batches, newest first. limit <= 0 means all.
func (d *DB) List(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT b.id, b.root, b.created_at, b.undone_at, COUNT(m.id), COALESCE(SUM(m.file_size), 0)
		FROM batches b LEFT JOIN moves m ON m.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchSummary
	for rows.Next() {
		var s BatchSummary
		var ts string
		var undone sql.NullString
		if err := rows.Scan(&s.ID, &s.Root, &ts, &undone, &s.Files, &s.Size); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(timeLayout, ts)
		if undone.Valid {
			u, _ := time.Parse(timeLayout, undone.String)
			s.UndoneAt = &u
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Search finds moves whose original or final path contains query.
func (d *DB) Search(ctx context.Context, query string) ([]Move, error) {
	pattern := "%" + query + "%"
	rows, err := d.db.QueryContext(ctx, `
		SELECT m.batch_id, m.original_path, m.final_path, m.file_size, b.created_at, b.undone_at IS NOT NULL
		FROM moves m JOIN batches b ON b.id = m.batch_id
		WHERE m.original_path LIKE ? OR m.final_path LIKE ?
		ORDER BY b.rowid DESC, m.seq
	`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Move
	for rows.Next() {
		var m Move
		var ts string
		var size sql.NullInt64
		if err := rows.Scan(&m.BatchID, &m.Original, &m.Final, &size, &ts, &m.Undone); err != nil {
			return nil, err
		}
		m.Size = size.Int64
		m.CreatedAt, _ = time.Parse(timeLayout, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
