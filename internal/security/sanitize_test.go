package security

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "unknown"},
		{"plain id", "3f2a9c1b", "3f2a9c1b"},
		{"uuid", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"path separators", "../../etc/passwd", "etc_passwd"},
		{"spaces and symbols", "my session! (1)", "my_session_1"},
		{"collapses underscores", "a///b", "a_b"},
		{"only symbols", "///", "unknown"},
		{"preserves dots and dashes", "capture.2024-01-02", "capture.2024-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	got := SanitizeFilename(string(long))
	if len(got) > 128 {
		t.Errorf("SanitizeFilename length = %d, want <= 128", len(got))
	}
}
