// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
)

// Storage persists and restores RoomState rows (spec.md §6.5:
// "rooms(name text pk, knowledge jsonb, ram bytea[8])"), grounded in
// dendrite's storage interfaces (one Go interface per concern, backed by
// either a Postgres or SQLite implementation selected at startup).
type Storage interface {
	SaveRoom(ctx context.Context, name string, state *model.ModelState) error
	LoadRoom(ctx context.Context, name string) (*model.ModelState, error)
	DeleteRoom(ctx context.Context, name string) error
	ListRoomNames(ctx context.Context) ([]string, error)
	Close() error
}

// SQLStorage implements Storage over database/sql, shared by the Postgres
// (lib/pq) and SQLite (mattn/go-sqlite3 / modernc.org/sqlite) backends:
// both speak the same upsert/select SQL, differing only in placeholder
// syntax and the array-of-bytea encoding for the eight RAM ranges, which
// this type flattens to a single concatenated blob with a length-prefixed
// framing (mirroring the TCP wire framing in internal/connection/tcp.go)
// since neither SQLite driver models Postgres's native array type.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
}

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// NewPostgresStorage opens a lib/pq-backed Storage and ensures the rooms
// table exists.
func NewPostgresStorage(ctx context.Context, connStr string, maxOpen, maxIdle int) (*SQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "roomserver: opening postgres connection")
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	s := &SQLStorage{db: db, dialect: dialectPostgres}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLiteStorage opens a database/sql Storage against whichever SQLite
// driver was compiled in (see storage_sqlite_cgo.go / storage_sqlite_pure.go).
func NewSQLiteStorage(ctx context.Context, driverName, dsn string) (*SQLStorage, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "roomserver: opening sqlite connection (driver %s)", driverName)
	}
	s := &SQLStorage{db: db, dialect: dialectSQLite}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStorage) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rooms (
	name       TEXT PRIMARY KEY,
	knowledge  TEXT NOT NULL,
	ram_blob   BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`)
	return errors.Wrap(err, "roomserver: creating rooms table")
}

// encodeRamRanges flattens the eight Ram.Encode() ranges into one blob as
// a sequence of (uint32 length, bytes) frames, since only Postgres models
// a native bytea[] and this format must round-trip identically on either
// backend.
func encodeRamRanges(ranges [8][]byte) []byte {
	var out []byte
	for _, r := range ranges {
		n := len(r)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, r...)
	}
	return out
}

func decodeRamRanges(blob []byte) ([8][]byte, error) {
	var out [8][]byte
	pos := 0
	for i := 0; i < 8; i++ {
		if pos+4 > len(blob) {
			return out, errors.Errorf("roomserver: truncated ram blob at range %d", i)
		}
		n := int(blob[pos])<<24 | int(blob[pos+1])<<16 | int(blob[pos+2])<<8 | int(blob[pos+3])
		pos += 4
		if pos+n > len(blob) {
			return out, errors.Errorf("roomserver: truncated ram blob at range %d", i)
		}
		out[i] = blob[pos : pos+n]
		pos += n
	}
	return out, nil
}

func (s *SQLStorage) SaveRoom(ctx context.Context, name string, state *model.ModelState) error {
	knowledgeJSON, err := state.Knowledge.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "roomserver: marshaling knowledge")
	}
	ramBlob := encodeRamRanges(state.Ram.Encode())

	var query string
	if s.dialect == dialectPostgres {
		query = `
INSERT INTO rooms (name, knowledge, ram_blob, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (name) DO UPDATE SET knowledge = EXCLUDED.knowledge, ram_blob = EXCLUDED.ram_blob, updated_at = now()`
	} else {
		query = `
INSERT INTO rooms (name, knowledge, ram_blob, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET knowledge = excluded.knowledge, ram_blob = excluded.ram_blob, updated_at = excluded.updated_at`
	}
	_, err = s.db.ExecContext(ctx, query, name, string(knowledgeJSON), ramBlob)
	return errors.Wrapf(err, "roomserver: saving room %q", name)
}

func (s *SQLStorage) LoadRoom(ctx context.Context, name string) (*model.ModelState, error) {
	query := "SELECT knowledge, ram_blob FROM rooms WHERE name = $1"
	if s.dialect == dialectSQLite {
		query = "SELECT knowledge, ram_blob FROM rooms WHERE name = ?"
	}
	var knowledgeJSON string
	var ramBlob []byte
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&knowledgeJSON, &ramBlob); err != nil {
		return nil, errors.Wrapf(err, "roomserver: loading room %q", name)
	}
	k := knowledge.New()
	if err := k.UnmarshalJSON([]byte(knowledgeJSON)); err != nil {
		return nil, errors.Wrapf(err, "roomserver: decoding knowledge for room %q", name)
	}
	ranges, err := decodeRamRanges(ramBlob)
	if err != nil {
		return nil, errors.Wrapf(err, "roomserver: decoding ram for room %q", name)
	}
	r, err := ram.Decode(ranges)
	if err != nil {
		return nil, errors.Wrapf(err, "roomserver: decoding ram for room %q", name)
	}
	return &model.ModelState{Knowledge: k, Ram: r, TrackerCtx: model.NewTrackerCtx()}, nil
}

func (s *SQLStorage) DeleteRoom(ctx context.Context, name string) error {
	query := "DELETE FROM rooms WHERE name = $1"
	if s.dialect == dialectSQLite {
		query = "DELETE FROM rooms WHERE name = ?"
	}
	_, err := s.db.ExecContext(ctx, query, name)
	return errors.Wrapf(err, "roomserver: deleting room %q", name)
}

func (s *SQLStorage) ListRoomNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM rooms")
	if err != nil {
		return nil, errors.Wrap(err, "roomserver: listing rooms")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "roomserver: scanning room name")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "roomserver: listing rooms")
}

func (s *SQLStorage) Close() error { return s.db.Close() }
