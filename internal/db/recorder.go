package db

import (
	"github.com/banshee-data/prt7.report/internal/monitoring"
	"github.com/banshee-data/prt7.report/internal/prt7"
	"github.com/google/uuid"
)

// Recorder persists decoder events for one session. It implements the
// prt7.Sink interface; storage failures are logged rather than propagated
// so that persistence problems never stall the decoding stream.
type Recorder struct {
	db        *DB
	sessionID string

	seq     int64
	offset  int
	lastRaw string
}

// NewRecorder registers a new session for the given source and returns a
// sink that records its events.
func NewRecorder(db *DB, source string) (*Recorder, error) {
	sessionID := uuid.New().String()
	if err := db.StartSession(sessionID, source); err != nil {
		return nil, err
	}
	return &Recorder{db: db, sessionID: sessionID}, nil
}

// SessionID returns the identifier of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Emit implements prt7.Sink.
func (r *Recorder) Emit(e prt7.Event) {
	switch ev := e.(type) {
	case prt7.FrameReceived:
		// remember the raw line so the dispatch events that follow can be
		// stored against it
		r.lastRaw = ev.RawLine

	case prt7.LoadProcessed:
		r.seq++
		if err := r.db.RecordLoadFrame(
			r.sessionID, r.seq, r.lastRaw,
			string(ev.RawSymbol), string(ev.DecodedSymbol), r.offset,
		); err != nil {
			monitoring.Logf("failed to record load frame: %v", err)
		}

	case prt7.RotationApplied:
		r.offset = (r.offset + ev.EffectiveShift) % 26
		r.seq++
		if err := r.db.RecordMapFrame(
			r.sessionID, r.seq, r.lastRaw,
			ev.RawDelta, ev.EffectiveShift, r.offset,
		); err != nil {
			monitoring.Logf("failed to record map frame: %v", err)
		}

	case prt7.FrameInvalid:
		if err := r.db.RecordParseError(r.sessionID, ev.RawLine, ev.Reason); err != nil {
			monitoring.Logf("failed to record parse error: %v", err)
		}

	case prt7.SessionComplete:
		if err := r.db.CompleteSession(r.sessionID, ev.FinalMessage); err != nil {
			monitoring.Logf("failed to complete session: %v", err)
		}
	}
}
