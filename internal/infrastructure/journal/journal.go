package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_uploads (
	cid        TEXT PRIMARY KEY,
	device     TEXT NOT NULL,
	date       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// Entry is one blob that reached the object store but whose ledger records
// are not yet confirmed committed.
type Entry struct {
	CID       string
	Device    string
	Date      string
	CreatedAt time.Time
}

// Journal tracks uploaded-but-uncommitted blobs in a local sqlite file, so
// an operator can reconcile orphaned object store content after a crash
// between the store write and the ledger commit.
type Journal struct {
	db  *sql.DB
	log *slog.Logger
}

func Open(path string, log *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Journal{
		db:  db,
		log: log.With(slog.String("component", "upload_journal")),
	}, nil
}

// Record notes a blob as uploaded but not yet committed to the ledger.
func (j *Journal) Record(ctx context.Context, cid, device, date string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_uploads (cid, device, date, created_at) VALUES (?, ?, ?, ?)`,
		cid, device, date, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record pending upload %s: %w", cid, err)
	}
	return nil
}

// MarkCommitted clears a blob once both ledger records are committed.
func (j *Journal) MarkCommitted(ctx context.Context, cid string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE cid = ?`, cid)
	if err != nil {
		return fmt.Errorf("clear pending upload %s: %w", cid, err)
	}
	return nil
}

// Pending lists blobs still awaiting ledger confirmation, oldest first.
func (j *Journal) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT cid, device, date, created_at FROM pending_uploads ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.CID, &e.Device, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending upload: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending uploads: %w", err)
	}

	return entries, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
