package prt7

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseOptions control parser leniency.
type ParseOptions struct {
	// StrictMapNumbers requires map deltas to be whole signed integers.
	// The wire-compatible default reads a numeric prefix and treats a
	// missing prefix as zero, matching what deployed PRT-7 senders rely on.
	StrictMapNumbers bool
}

// ParseLine parses one raw line into a frame. A line that is blank after
// trimming returns (nil, nil) and is skippable; malformed lines return a
// *ParseError. The parser keeps the leniencies of the wire format: a load
// argument longer than one character contributes only its first character,
// and a map delta is read as a numeric prefix unless StrictMapNumbers is
// set.
func ParseLine(line string, opts ParseOptions) (*Frame, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	token, rest, _ := strings.Cut(trimmed, ",")
	token = strings.TrimSpace(token)

	switch {
	case strings.EqualFold(token, "L"):
		arg := strings.TrimSpace(rest)
		if arg == "" {
			return nil, &ParseError{Reason: ErrMissingArgument, Token: token, Line: line}
		}
		if strings.EqualFold(arg, "Space") {
			return &Frame{Kind: KindLoad, Symbol: ' '}, nil
		}
		// Only the first character counts; trailing characters are ignored.
		sym, _ := utf8.DecodeRuneInString(arg)
		return &Frame{Kind: KindLoad, Symbol: sym}, nil

	case strings.EqualFold(token, "M"):
		arg := strings.TrimSpace(rest)
		if arg == "" {
			return nil, &ParseError{Reason: ErrMissingArgument, Token: token, Line: line}
		}
		if opts.StrictMapNumbers {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, &ParseError{Reason: ErrBadShift, Token: arg, Line: line}
			}
			return &Frame{Kind: KindMap, Shift: n}, nil
		}
		return &Frame{Kind: KindMap, Shift: parseShift(arg)}, nil

	default:
		return nil, &ParseError{Reason: ErrUnknownFrameType, Token: token, Line: line}
	}
}

// parseShift reads an optionally signed run of leading digits, stopping at
// the first non-digit and yielding zero when no digits lead at all.
func parseShift(s string) int {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s); i++ {
		d := s[i]
		if d < '0' || d > '9' {
			break
		}
		n = n*10 + int(d-'0')
	}
	if neg {
		return -n
	}
	return n
}
