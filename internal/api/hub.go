package api

import (
	"sync"

	"github.com/banshee-data/prt7.report/internal/prt7"
)

// EventJSON is the wire rendering of one decoder event for the SSE stream.
type EventJSON struct {
	Type           string `json:"type"`
	RawLine        string `json:"raw_line,omitempty"`
	Reason         string `json:"reason,omitempty"`
	RawSymbol      string `json:"raw_symbol,omitempty"`
	DecodedSymbol  string `json:"decoded_symbol,omitempty"`
	Message        string `json:"message,omitempty"`
	RawDelta       int    `json:"raw_delta,omitempty"`
	EffectiveShift int    `json:"effective_shift,omitempty"`
	RotorTable     string `json:"rotor_table,omitempty"`
}

// SessionStatus is the live view of the decoding session served by the API.
type SessionStatus struct {
	Message     string `json:"message"`
	RotorOffset int    `json:"rotor_offset"`
	FrameCount  int    `json:"frame_count"`
	Complete    bool   `json:"complete"`
}

// Hub implements prt7.Sink, caching the live session state for status
// requests and fanning events out to SSE subscribers. It carries its own
// lock so the decoder goroutine stays single-threaded while HTTP handlers
// read from any goroutine.
type Hub struct {
	mu          sync.Mutex
	status      SessionStatus
	subscribers map[string]chan EventJSON
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan EventJSON),
	}
}

// Emit implements prt7.Sink.
func (h *Hub) Emit(e prt7.Event) {
	out := renderEvent(e)

	h.mu.Lock()
	switch ev := e.(type) {
	case prt7.LoadProcessed:
		h.status.Message = ev.MessageSoFar
		h.status.FrameCount++
	case prt7.RotationApplied:
		h.status.RotorOffset = (h.status.RotorOffset + ev.EffectiveShift) % 26
		h.status.FrameCount++
	case prt7.SessionComplete:
		h.status.Message = ev.FinalMessage
		h.status.Complete = true
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- out:
		default:
			// drop rather than stall the decoding stream on a slow client
		}
	}
	h.mu.Unlock()
}

// Status returns a snapshot of the live session state.
func (h *Hub) Status() SessionStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Subscribe registers an SSE subscriber. The channel is buffered so a
// briefly slow client does not lose events immediately.
func (h *Hub) Subscribe() (string, chan EventJSON) {
	id := randomID()
	ch := make(chan EventJSON, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes an SSE subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

func renderEvent(e prt7.Event) EventJSON {
	switch ev := e.(type) {
	case prt7.FrameReceived:
		return EventJSON{Type: "frame_received", RawLine: ev.RawLine}
	case prt7.FrameInvalid:
		return EventJSON{Type: "frame_invalid", RawLine: ev.RawLine, Reason: ev.Reason}
	case prt7.LoadProcessed:
		return EventJSON{
			Type:          "load_processed",
			RawSymbol:     string(ev.RawSymbol),
			DecodedSymbol: string(ev.DecodedSymbol),
			Message:       ev.MessageSoFar,
		}
	case prt7.RotationApplied:
		return EventJSON{
			Type:           "rotation_applied",
			RawDelta:       ev.RawDelta,
			EffectiveShift: ev.EffectiveShift,
			RotorTable:     ev.RotorTable,
		}
	case prt7.SessionComplete:
		return EventJSON{Type: "session_complete", Message: ev.FinalMessage}
	}
	return EventJSON{Type: "unknown"}
}
