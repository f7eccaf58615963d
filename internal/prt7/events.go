package prt7

// Event is one structured diagnostic produced by the decoding engine. The
// engine attaches no formatting of its own; consumers decide rendering.
type Event interface {
	event()
}

// FrameReceived is emitted for every raw line offered to the decoder.
type FrameReceived struct {
	RawLine string
}

// FrameInvalid is emitted when a line cannot be parsed into a frame. The
// line is skipped and the session continues.
type FrameInvalid struct {
	RawLine string
	Reason  string
}

// LoadProcessed is emitted after a load frame is decoded through the rotor
// and appended to the message.
type LoadProcessed struct {
	RawSymbol     rune
	DecodedSymbol rune
	MessageSoFar  string
}

// RotationApplied is emitted after a map frame rotates the rotor.
type RotationApplied struct {
	RawDelta       int
	EffectiveShift int
	RotorTable     string
}

// SessionComplete is emitted once when the line source is exhausted.
type SessionComplete struct {
	FinalMessage string
}

func (FrameReceived) event()   {}
func (FrameInvalid) event()    {}
func (LoadProcessed) event()   {}
func (RotationApplied) event() {}
func (SessionComplete) event() {}

// Sink receives decoder events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) {
	f(e)
}

// MultiSink fans each event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
