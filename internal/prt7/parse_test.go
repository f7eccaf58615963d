package prt7

import (
	"errors"
	"testing"
)

func TestParseLine_LoadFrames(t *testing.T) {
	tests := []struct {
		name string
		line string
		want rune
	}{
		{"plain letter", "L,H", 'H'},
		{"lowercase token", "l,h", 'h'},
		{"space keyword", "L,Space", ' '},
		{"space keyword case-insensitive", "L,sPaCe", ' '},
		{"surrounding whitespace", "  L , X  ", 'X'},
		{"trailing characters ignored", "L,ABC", 'A'},
		{"digit symbol", "L,7", '7'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseLine(tt.line, ParseOptions{})
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if frame == nil {
				t.Fatalf("ParseLine(%q) returned no frame", tt.line)
			}
			if frame.Kind != KindLoad {
				t.Errorf("Kind = %v, want load", frame.Kind)
			}
			if frame.Symbol != tt.want {
				t.Errorf("Symbol = %q, want %q", frame.Symbol, tt.want)
			}
		})
	}
}

func TestParseLine_MapFrames(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{"positive", "M,2", 2},
		{"explicit plus", "M,+3", 3},
		{"negative", "M,-2", -2},
		{"lowercase token", "m,5", 5},
		{"stops at first non-digit", "M,12abc", 12},
		{"second comma ignored", "M,4,junk", 4},
		{"no leading digits yields zero", "M,abc", 0},
		{"bare sign yields zero", "M,-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseLine(tt.line, ParseOptions{})
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if frame.Kind != KindMap {
				t.Errorf("Kind = %v, want map", frame.Kind)
			}
			if frame.Shift != tt.want {
				t.Errorf("Shift = %d, want %d", frame.Shift, tt.want)
			}
		})
	}
}

func TestParseLine_BlankLines(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", " \r "} {
		frame, err := ParseLine(line, ParseOptions{})
		if err != nil {
			t.Errorf("ParseLine(%q) error: %v, want none", line, err)
		}
		if frame != nil {
			t.Errorf("ParseLine(%q) = %+v, want nil frame", line, frame)
		}
	}
}

func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantErr   error
		wantToken string
	}{
		{"unknown type token", "X,1", ErrUnknownFrameType, "X"},
		{"multi-character token", "LM,1", ErrUnknownFrameType, "LM"},
		{"load without comma", "L", ErrMissingArgument, "L"},
		{"load with empty argument", "L,", ErrMissingArgument, "L"},
		{"load with blank argument", "L,   ", ErrMissingArgument, "L"},
		{"map without argument", "M,", ErrMissingArgument, "M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseLine(tt.line, ParseOptions{})
			if frame != nil {
				t.Errorf("ParseLine(%q) returned frame %+v", tt.line, frame)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseLine(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is not a *ParseError: %v", err)
			}
			if pe.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", pe.Token, tt.wantToken)
			}
			if pe.Line != tt.line {
				t.Errorf("Line = %q, want %q", pe.Line, tt.line)
			}
		})
	}
}

func TestParseLine_StrictMapNumbers(t *testing.T) {
	strict := ParseOptions{StrictMapNumbers: true}

	frame, err := ParseLine("M,-4", strict)
	if err != nil {
		t.Fatalf("strict ParseLine(M,-4) error: %v", err)
	}
	if frame.Shift != -4 {
		t.Errorf("Shift = %d, want -4", frame.Shift)
	}

	for _, line := range []string{"M,12abc", "M,abc", "M,4,junk", "M,-"} {
		if _, err := ParseLine(line, strict); !errors.Is(err, ErrBadShift) {
			t.Errorf("strict ParseLine(%q) error = %v, want ErrBadShift", line, err)
		}
	}
}

func TestParseShift(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"26", 26},
		{"-26", -26},
		{"+7", 7},
		{"007", 7},
		{"3garbage", 3},
		{"", 0},
		{"x", 0},
	}
	for _, tt := range tests {
		if got := parseShift(tt.in); got != tt.want {
			t.Errorf("parseShift(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
