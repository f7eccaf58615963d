package prt7

import "strings"

// Accumulator stores decoded message characters in arrival order. It is
// append-only for the lifetime of a session.
type Accumulator struct {
	chars []rune
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a decoded character to the end of the message.
func (a *Accumulator) Append(r rune) {
	a.chars = append(a.chars, r)
}

// Len returns the number of characters accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.chars)
}

// Snapshot returns the message assembled so far.
func (a *Accumulator) Snapshot() string {
	return string(a.chars)
}

// Brackets renders the message with each character boxed, e.g. [H][O][L][A].
// This is the progress format used by the console narration.
func (a *Accumulator) Brackets() string {
	var b strings.Builder
	for _, r := range a.chars {
		b.WriteByte('[')
		b.WriteRune(r)
		b.WriteByte(']')
	}
	return b.String()
}
