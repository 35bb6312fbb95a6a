// Package mediastore keeps the index of saved statuses, the same role
// the platform media database plays on a phone. Rows carry a stable id
// so entries can be addressed by content uri.
package mediastore

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	_ "modernc.org/sqlite"

	"github.com/maxcodl/WhatSave/commons"
)

const schema = `
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	display_name TEXT NOT NULL,
	kind TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	abs_path TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	date_added TEXT NOT NULL,
	UNIQUE(relative_path, display_name)
);
`

const indexes = `
CREATE INDEX IF NOT EXISTS idx_media_kind ON media(kind);
`

// Entry is one indexed media file.
type Entry struct {
	ID        int64
	Name      string
	Kind      commons.MediaKind
	RelPath   string
	AbsPath   string
	Mime      string
	Size      int64
	DateAdded time.Time
}

// URI is the content style address of the entry.
func (e Entry) URI() string {
	return fmt.Sprintf("%s/%d", e.Kind.ContentURI(), e.ID)
}

type Index struct {
	db *sql.DB
}

// Open opens the index at path, creating parents and schema.
func Open(path string) (*Index, error) {
	if err := commons.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "sqlite open")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite schema")
	}
	if _, err := db.Exec(indexes); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite indexes")
	}
	runMigrations(db)
	return &Index{db: db}, nil
}

// runMigrations patches older databases. Errors are ignored when the
// column already exists.
func runMigrations(db *sql.DB) {
	_, _ = db.Exec("ALTER TABLE media ADD COLUMN mime_type TEXT NOT NULL DEFAULT ''")
	_, _ = db.Exec("ALTER TABLE media ADD COLUMN size INTEGER NOT NULL DEFAULT 0")
}

func (x *Index) Close() error {
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

// Insert adds or refreshes an entry and returns its id. A re-saved
// file keeps its path based identity but gets a fresh row state.
func (x *Index) Insert(e Entry) (int64, error) {
	if e.Mime == "" {
		if mt, err := mimetype.DetectFile(e.AbsPath); err == nil {
			e.Mime = mt.String()
		} else {
			e.Mime = e.Kind.MimeType()
		}
	}
	if e.DateAdded.IsZero() {
		e.DateAdded = time.Now()
	}
	_, err := x.db.Exec(`
		INSERT INTO media (display_name, kind, relative_path, abs_path, mime_type, size, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(relative_path, display_name) DO UPDATE SET
			abs_path = excluded.abs_path,
			mime_type = excluded.mime_type,
			size = excluded.size,
			date_added = excluded.date_added`,
		e.Name, string(e.Kind), e.RelPath, e.AbsPath, e.Mime, e.Size,
		e.DateAdded.Format(time.RFC3339Nano))
	if err != nil {
		return 0, errors.Wrapf(err, "index %s", e.Name)
	}
	var id int64
	err = x.db.QueryRow(
		`SELECT id FROM media WHERE relative_path = ? AND display_name = ?`,
		e.RelPath, e.Name).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "read back id")
	}
	return id, nil
}

// ByKind lists entries of one kind, newest first.
func (x *Index) ByKind(kind commons.MediaKind) ([]Entry, error) {
	rows, err := x.db.Query(`
		SELECT id, display_name, kind, relative_path, abs_path, mime_type, size, date_added
		FROM media WHERE kind = ? ORDER BY date_added DESC, id DESC`, string(kind))
	if err != nil {
		return nil, errors.Wrap(err, "query media")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Get fetches a single entry by id.
func (x *Index) Get(id int64) (Entry, error) {
	row := x.db.QueryRow(`
		SELECT id, display_name, kind, relative_path, abs_path, mime_type, size, date_added
		FROM media WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.Errorf("no entry with id %d", id)
	}
	return e, err
}

// Names maps display name to id for one kind.
func (x *Index) Names(kind commons.MediaKind) (map[string]int64, error) {
	rows, err := x.db.Query(`SELECT display_name, id FROM media WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, errors.Wrap(err, "query names")
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}

// IDsForNames resolves display names to ids. Names the index never
// saw are skipped, not errors.
func (x *Index) IDsForNames(kind commons.MediaKind, names []string) ([]int64, error) {
	known, err := x.Names(kind)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, n := range names {
		if id, ok := known[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Reconcile drops rows whose file is gone from disk. Returns how many
// rows went away.
func (x *Index) Reconcile() (int, error) {
	rows, err := x.db.Query(`SELECT id, abs_path FROM media`)
	if err != nil {
		return 0, errors.Wrap(err, "query media")
	}
	var stale []int64
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, err
		}
		if !fileExists(path) {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()
	if len(stale) == 0 {
		return 0, nil
	}
	return x.deleteRows(stale)
}

func (x *Index) deleteRows(ids []int64) (int, error) {
	tx, err := x.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()
	n := 0
	for _, id := range ids {
		res, err := tx.Exec(`DELETE FROM media WHERE id = ?`, id)
		if err != nil {
			return 0, errors.Wrapf(err, "delete id %d", id)
		}
		if c, _ := res.RowsAffected(); c > 0 {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	var kind, added string
	if err := r.Scan(&e.ID, &e.Name, &kind, &e.RelPath, &e.AbsPath, &e.Mime, &e.Size, &added); err != nil {
		return Entry{}, err
	}
	e.Kind = commons.MediaKind(kind)
	if t, err := time.Parse(time.RFC3339Nano, added); err == nil {
		e.DateAdded = t
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
