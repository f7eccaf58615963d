// Package prt7 implements the PRT-7 framing protocol: a line-oriented
// stream of LOAD and MAP frames that carries a hidden text message encoded
// with a rotating substitution cipher. The package holds the frame model,
// the cipher rotor, the payload accumulator, and the decoding engine that
// drives a session; transports and rendering live elsewhere.
package prt7

const alphabetSize = 26

// Rotor is the rotating substitution table used to decode LOAD frames. The
// alphabet A-Z is fixed in canonical order; only the rotation offset
// changes, so a letter at canonical index i decodes to the letter at
// (i + offset) mod 26.
type Rotor struct {
	offset int
}

// NewRotor returns a rotor aligned at offset zero.
func NewRotor() *Rotor {
	return &Rotor{}
}

// Rotate advances the rotor by n positions and returns the effective
// normalized shift in [0,26). Negative deltas rotate backwards and wrap,
// so Rotate(-2) from offset zero lands on offset 24.
func (r *Rotor) Rotate(n int) int {
	effective := n % alphabetSize
	if effective < 0 {
		effective += alphabetSize
	}
	r.offset = (r.offset + effective) % alphabetSize
	return effective
}

// Offset returns the current rotation offset in [0,26).
func (r *Rotor) Offset() int {
	return r.offset
}

// Map decodes a single symbol through the rotor. Lowercase letters are
// normalized to uppercase before mapping, the space symbol maps to itself,
// and any other symbol outside A-Z passes through unchanged.
func (r *Rotor) Map(in rune) rune {
	if in == ' ' {
		return ' '
	}
	if in >= 'a' && in <= 'z' {
		in = in - 'a' + 'A'
	}
	if in < 'A' || in > 'Z' {
		return in
	}
	return 'A' + rune((int(in-'A')+r.offset)%alphabetSize)
}

// Table returns the 26 letters of the rotor read from the current zero
// position, the same dump the rotation diagnostics carry.
func (r *Rotor) Table() string {
	var b [alphabetSize]byte
	for i := range b {
		b[i] = byte('A' + (i+r.offset)%alphabetSize)
	}
	return string(b[:])
}
