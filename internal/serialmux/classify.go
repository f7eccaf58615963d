package serialmux

import "strings"

const (
	LineTypeLoad    = "load"
	LineTypeMap     = "map"
	LineTypeBlank   = "blank"
	LineTypeUnknown = "unknown"
)

// ClassifyLine inspects a raw line and returns a simple frame type token
// based on the PRT-7 type field. The classification is intentionally
// shallow: it looks only at the token before the first comma and leaves
// argument validation to the decoder.
func ClassifyLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LineTypeBlank
	}
	token, _, _ := strings.Cut(trimmed, ",")
	switch {
	case strings.EqualFold(strings.TrimSpace(token), "L"):
		return LineTypeLoad
	case strings.EqualFold(strings.TrimSpace(token), "M"):
		return LineTypeMap
	}
	return LineTypeUnknown
}
