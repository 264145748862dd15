package snapshot

import (
	"database/sql"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	taken_unix INTEGER NOT NULL,
	lookups    INTEGER NOT NULL,
	hits       INTEGER NOT NULL,
	misses     INTEGER NOT NULL,
	answers    INTEGER NOT NULL,
	duplicates INTEGER NOT NULL,
	suspensions INTEGER NOT NULL,
	completions INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	run_id    TEXT NOT NULL,
	proc      TEXT NOT NULL,
	arity     INTEGER NOT NULL,
	method    INTEGER NOT NULL,
	key       TEXT NOT NULL,
	status    INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	PRIMARY KEY (run_id, proc, arity, key)
);
CREATE TABLE IF NOT EXISTS answers (
	run_id TEXT NOT NULL,
	proc   TEXT NOT NULL,
	arity  INTEGER NOT NULL,
	key    TEXT NOT NULL,
	seq    INTEGER NOT NULL,
	wire   BLOB NOT NULL,
	PRIMARY KEY (run_id, proc, arity, key, seq)
);`

// OpenDB opens (or creates) a snapshot database at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}
	return db, nil
}

// WriteDB stores one snapshot in the database under its run id. Answer
// tuples are stored as canonical CBOR blobs, one row per answer, so the
// creation order survives round trips.
func WriteDB(db *sql.DB, s *Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs
		 (run_id, taken_unix, lookups, hits, misses, answers, duplicates, suspensions, completions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.TakenUnix,
		s.Stats.Lookups, s.Stats.Hits, s.Stats.Misses, s.Stats.Answers,
		s.Stats.Duplicates, s.Stats.Suspensions, s.Stats.Completions,
	)
	if err != nil {
		return fmt.Errorf("writing run row: %w", err)
	}

	for _, p := range s.Procs {
		for _, e := range p.Entries {
			_, err = tx.Exec(
				`INSERT OR REPLACE INTO entries
				 (run_id, proc, arity, method, key, status, succeeded)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.RunID, p.Name, p.Arity, p.Method, e.Key, e.Status, e.Succeeded,
			)
			if err != nil {
				return fmt.Errorf("writing entry %s/%d %s: %w", p.Name, p.Arity, e.Key, err)
			}
			for _, a := range e.Answers {
				wire, err := cborEncMode.Marshal(a.Slots)
				if err != nil {
					return fmt.Errorf("encoding answer %d of %s/%d %s: %w", a.Seq, p.Name, p.Arity, e.Key, err)
				}
				_, err = tx.Exec(
					`INSERT OR REPLACE INTO answers (run_id, proc, arity, key, seq, wire)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					s.RunID, p.Name, p.Arity, e.Key, a.Seq, wire,
				)
				if err != nil {
					return fmt.Errorf("writing answer %d of %s/%d %s: %w", a.Seq, p.Name, p.Arity, e.Key, err)
				}
			}
		}
	}
	return tx.Commit()
}

// ReadAnswers loads the stored answer tuples for one entry, in sequence
// order.
func ReadAnswers(db *sql.DB, runID, proc string, arity int, key string) ([]AnswerSnapshot, error) {
	rows, err := db.Query(
		`SELECT seq, wire FROM answers
		 WHERE run_id = ? AND proc = ? AND arity = ? AND key = ?
		 ORDER BY seq`,
		runID, proc, arity, key,
	)
	if err != nil {
		return nil, fmt.Errorf("querying answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerSnapshot
	for rows.Next() {
		var a AnswerSnapshot
		var wire []byte
		if err := rows.Scan(&a.Seq, &wire); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		if err := cbor.Unmarshal(wire, &a.Slots); err != nil {
			return nil, fmt.Errorf("decoding answer %d: %w", a.Seq, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
