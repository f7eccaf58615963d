package prt7

import (
	"context"
	"errors"
)

// ErrSessionDrained reports a line offered after the session ended.
var ErrSessionDrained = errors.New("decoding session drained")

// Decoder drives one PRT-7 decoding session. It parses raw lines into
// frames, decodes load frames through the rotor into the accumulator, and
// applies map frames to the rotor. Processing is strictly sequential: one
// line is fully dispatched before the next is read. A Decoder serves
// exactly one session and is not safe for concurrent use.
type Decoder struct {
	rotor   *Rotor
	acc     *Accumulator
	opts    ParseOptions
	sink    Sink
	drained bool
}

// NewDecoder returns a decoder with the rotor at offset zero and an empty
// message. A nil sink discards all events.
func NewDecoder(opts ParseOptions, sink Sink) *Decoder {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Decoder{
		rotor: NewRotor(),
		acc:   NewAccumulator(),
		opts:  opts,
		sink:  sink,
	}
}

// HandleLine parses and dispatches one raw line. Blank lines are skipped
// silently and malformed lines are skipped with a FrameInvalid event;
// neither ends the session. The only error condition is offering a line
// after the session drained.
func (d *Decoder) HandleLine(line string) error {
	if d.drained {
		return ErrSessionDrained
	}

	d.sink.Emit(FrameReceived{RawLine: line})

	frame, err := ParseLine(line, d.opts)
	if err != nil {
		d.sink.Emit(FrameInvalid{RawLine: line, Reason: err.Error()})
		return nil
	}
	if frame == nil {
		return nil
	}

	switch frame.Kind {
	case KindLoad:
		decoded := d.rotor.Map(frame.Symbol)
		d.acc.Append(decoded)
		d.sink.Emit(LoadProcessed{
			RawSymbol:     frame.Symbol,
			DecodedSymbol: decoded,
			MessageSoFar:  d.acc.Snapshot(),
		})
	case KindMap:
		effective := d.rotor.Rotate(frame.Shift)
		d.sink.Emit(RotationApplied{
			RawDelta:       frame.Shift,
			EffectiveShift: effective,
			RotorTable:     d.rotor.Table(),
		})
	}
	return nil
}

// Drain ends the session and emits SessionComplete with the assembled
// message. Draining twice is a no-op; no further lines are accepted.
func (d *Decoder) Drain() {
	if d.drained {
		return
	}
	d.drained = true
	d.sink.Emit(SessionComplete{FinalMessage: d.acc.Snapshot()})
}

// Run consumes lines until the channel closes or the context is cancelled,
// then drains the session. Channel closure is the normal end of a session
// and returns nil; cancellation returns the context error after draining.
func (d *Decoder) Run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			d.Drain()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				d.Drain()
				return nil
			}
			if err := d.HandleLine(line); err != nil {
				return err
			}
		}
	}
}

// Message returns the decoded message assembled so far.
func (d *Decoder) Message() string {
	return d.acc.Snapshot()
}

// Offset returns the rotor's current offset, for status reporting.
func (d *Decoder) Offset() int {
	return d.rotor.Offset()
}

// Drained reports whether the session has ended.
func (d *Decoder) Drained() bool {
	return d.drained
}
