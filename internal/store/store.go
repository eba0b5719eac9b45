// Package store is the device-local persistence layer: preference flags,
// the per-day scheduled-notification id sets, and the last-sent location
// sample. The pending-boarding set is deliberately not persisted; it lives
// in memory and is lost on restart.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the local database. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prefs (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_ids (
			day TEXT PRIMARY KEY,
			ids TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS last_location (
			id  INTEGER PRIMARY KEY CHECK (id = 1),
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			ts  INTEGER NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetPref returns a preference value; ok is false when the key is unset.
func (s *Store) GetPref(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetPref(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set pref %q: %w", key, err)
	}
	return nil
}

// GetBool reads a flag preference; unset keys read as false.
func (s *Store) GetBool(key string) (bool, error) {
	v, ok, err := s.GetPref(key)
	if err != nil || !ok {
		return false, err
	}
	return v == "true", nil
}

func (s *Store) SetBool(key string, on bool) error {
	return s.SetPref(key, strconv.FormatBool(on))
}

// DayIDs loads the scheduled-notification id set for one YYYYMMDD day key.
func (s *Store) DayIDs(day string) (map[int64]struct{}, error) {
	var joined string
	err := s.db.QueryRow(`SELECT ids FROM scheduled_ids WHERE day = ?`, day).Scan(&joined)
	if errors.Is(err, sql.ErrNoRows) {
		return map[int64]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scheduled ids for %s: %w", day, err)
	}
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(joined, ",") {
		if part == "" {
			continue
		}
		id, perr := strconv.ParseInt(part, 10, 64)
		if perr != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// AddDayID records one scheduled id under the day's comma-joined set.
func (s *Store) AddDayID(day string, id int64) error {
	ids, err := s.DayIDs(day)
	if err != nil {
		return err
	}
	if _, ok := ids[id]; ok {
		return nil
	}
	var joined string
	err = s.db.QueryRow(`SELECT ids FROM scheduled_ids WHERE day = ?`, day).Scan(&joined)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load scheduled ids for %s: %w", day, err)
	}
	entry := strconv.FormatInt(id, 10)
	if joined != "" {
		joined += "," + entry
	} else {
		joined = entry
	}
	_, err = s.db.Exec(
		`INSERT INTO scheduled_ids (day, ids) VALUES (?, ?)
		 ON CONFLICT(day) DO UPDATE SET ids = excluded.ids`, day, joined)
	if err != nil {
		return fmt.Errorf("store scheduled ids for %s: %w", day, err)
	}
	return nil
}

// PruneScheduledBefore removes id sets for days older than the given
// YYYYMMDD key. Within a day the set is never pruned.
func (s *Store) PruneScheduledBefore(day string) error {
	if _, err := s.db.Exec(`DELETE FROM scheduled_ids WHERE day < ?`, day); err != nil {
		return fmt.Errorf("prune scheduled ids: %w", err)
	}
	return nil
}

// LastLocation returns the last persisted sample; ok is false when none
// was ever stored.
func (s *Store) LastLocation() (lat, lng float64, ts int64, ok bool, err error) {
	err = s.db.QueryRow(`SELECT lat, lng, ts FROM last_location WHERE id = 1`).Scan(&lat, &lng, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, 0, false, fmt.Errorf("load last location: %w", err)
	}
	return lat, lng, ts, true, nil
}

func (s *Store) SetLastLocation(lat, lng float64, ts int64) error {
	_, err := s.db.Exec(
		`INSERT INTO last_location (id, lat, lng, ts) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET lat = excluded.lat, lng = excluded.lng, ts = excluded.ts`,
		lat, lng, ts)
	if err != nil {
		return fmt.Errorf("store last location: %w", err)
	}
	return nil
}
