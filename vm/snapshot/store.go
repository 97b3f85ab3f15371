package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Info describes a stored snapshot without its objects.
type Info struct {
	ID      string
	Label   string
	TakenAt time.Time
	Objects int
	Size    int // encoded bytes
}

// Store keeps snapshots in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id       TEXT PRIMARY KEY,
		label    TEXT NOT NULL,
		taken_at INTEGER NOT NULL,
		objects  INTEGER NOT NULL,
		size     INTEGER NOT NULL,
		data     BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists snap, replacing any snapshot with the same ID.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", snap.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (id, label, taken_at, objects, size, data) VALUES (?, ?, ?, ?, ?, ?)",
		snap.ID, snap.Label, snap.TakenAt.UnixNano(), len(snap.Objects), len(data), data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.ID, err)
	}
	log.Infof("saved snapshot %s (%d objects, %d bytes)", snap.ID, len(snap.Objects), len(data))
	return nil
}

// Load retrieves the snapshot with the given ID.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("querying snapshot %s: %w", id, err)
	}
	return Unmarshal(data)
}

// List returns every stored snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, label, taken_at, objects, size FROM snapshots ORDER BY taken_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var takenAt int64
		if err := rows.Scan(&info.ID, &info.Label, &takenAt, &info.Objects, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		info.TakenAt = time.Unix(0, takenAt).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the snapshot with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return nil
}
