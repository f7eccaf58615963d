// Package db persists PRT-7 decoding sessions: every frame that was
// dispatched, every line that failed to parse, and the final assembled
// message for each session.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			source            TEXT,
			final_message     TEXT,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at      TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS frames (
			session_id        TEXT,
			seq               BIGINT,
			raw_line          TEXT,
			kind              TEXT,
			raw_symbol        TEXT,
			decoded_symbol    TEXT,
			raw_delta         BIGINT,
			effective_shift   BIGINT,
			rotor_offset      BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS parse_errors (
			session_id        TEXT,
			raw_line          TEXT,
			reason            TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Session describes one decoding session.
type Session struct {
	SessionID    string  `json:"session_id"`
	Source       string  `json:"source"`
	FinalMessage *string `json:"final_message"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  *string `json:"completed_at"`
}

// FrameRecord is one dispatched frame as stored.
type FrameRecord struct {
	SessionID      string `json:"session_id"`
	Seq            int64  `json:"seq"`
	RawLine        string `json:"raw_line"`
	Kind           string `json:"kind"`
	RawSymbol      string `json:"raw_symbol,omitempty"`
	DecodedSymbol  string `json:"decoded_symbol,omitempty"`
	RawDelta       int64  `json:"raw_delta"`
	EffectiveShift int64  `json:"effective_shift"`
	RotorOffset    int64  `json:"rotor_offset"`
}

// ParseErrorRecord is one rejected line as stored.
type ParseErrorRecord struct {
	SessionID string `json:"session_id"`
	RawLine   string `json:"raw_line"`
	Reason    string `json:"reason"`
}

// StartSession registers a new decoding session against the given source
// (device path or capture file).
func (db *DB) StartSession(sessionID, source string) error {
	_, err := db.Exec(
		"INSERT INTO sessions (session_id, source) VALUES (?, ?)",
		sessionID, source,
	)
	return err
}

// CompleteSession stores the final assembled message for a session.
func (db *DB) CompleteSession(sessionID, finalMessage string) error {
	_, err := db.Exec(
		"UPDATE sessions SET final_message = ?, completed_at = CURRENT_TIMESTAMP WHERE session_id = ?",
		finalMessage, sessionID,
	)
	return err
}

// RecordLoadFrame stores a decoded load frame.
func (db *DB) RecordLoadFrame(sessionID string, seq int64, rawLine string, rawSymbol, decodedSymbol string, rotorOffset int) error {
	_, err := db.Exec(
		`INSERT INTO frames (session_id, seq, raw_line, kind, raw_symbol, decoded_symbol, rotor_offset)
		 VALUES (?, ?, ?, 'load', ?, ?, ?)`,
		sessionID, seq, rawLine, rawSymbol, decodedSymbol, rotorOffset,
	)
	return err
}

// RecordMapFrame stores an applied rotation.
func (db *DB) RecordMapFrame(sessionID string, seq int64, rawLine string, rawDelta, effectiveShift, rotorOffset int) error {
	_, err := db.Exec(
		`INSERT INTO frames (session_id, seq, raw_line, kind, raw_delta, effective_shift, rotor_offset)
		 VALUES (?, ?, ?, 'map', ?, ?, ?)`,
		sessionID, seq, rawLine, rawDelta, effectiveShift, rotorOffset,
	)
	return err
}

// RecordParseError stores a line that could not be parsed.
func (db *DB) RecordParseError(sessionID, rawLine, reason string) error {
	_, err := db.Exec(
		"INSERT INTO parse_errors (session_id, raw_line, reason) VALUES (?, ?, ?)",
		sessionID, rawLine, reason,
	)
	return err
}

// Sessions returns the most recent decoding sessions.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, source, final_message, started_at, completed_at
		 FROM sessions ORDER BY started_at DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionID, &s.Source, &s.FinalMessage, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Frames returns the dispatched frames of a session in arrival order.
func (db *DB) Frames(sessionID string) ([]FrameRecord, error) {
	rows, err := db.Query(
		`SELECT session_id, seq, raw_line, kind,
		        COALESCE(raw_symbol, ''), COALESCE(decoded_symbol, ''),
		        COALESCE(raw_delta, 0), COALESCE(effective_shift, 0), rotor_offset
		 FROM frames WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var f FrameRecord
		if err := rows.Scan(
			&f.SessionID, &f.Seq, &f.RawLine, &f.Kind,
			&f.RawSymbol, &f.DecodedSymbol,
			&f.RawDelta, &f.EffectiveShift, &f.RotorOffset,
		); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// ParseErrors returns the rejected lines of a session.
func (db *DB) ParseErrors(sessionID string) ([]ParseErrorRecord, error) {
	rows, err := db.Query(
		"SELECT session_id, raw_line, reason FROM parse_errors WHERE session_id = ? ORDER BY timestamp ASC",
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []ParseErrorRecord
	for rows.Next() {
		var e ParseErrorRecord
		if err := rows.Scan(&e.SessionID, &e.RawLine, &e.Reason); err != nil {
			return nil, err
		}
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return errs, nil
}

// LastMessage returns the final message of the most recently completed
// session, or sql.ErrNoRows when no session has completed.
func (db *DB) LastMessage() (string, error) {
	var message string
	err := db.QueryRow(
		`SELECT final_message FROM sessions
		 WHERE completed_at IS NOT NULL ORDER BY completed_at DESC LIMIT 1`,
	).Scan(&message)
	if err != nil {
		return "", err
	}
	return message, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://prt7.db", db.DB, &tailsql.DBOptions{
		Label: "PRT-7 DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()

		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
