package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decoder.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestEmptyDecoderConfigDefaults(t *testing.T) {
	cfg := EmptyDecoderConfig()

	if got := cfg.GetSerialPort(); got != "" {
		t.Errorf("GetSerialPort() = %q, want empty", got)
	}
	if got := cfg.GetBaudRate(); got != 9600 {
		t.Errorf("GetBaudRate() = %d, want 9600", got)
	}
	if got := cfg.GetReplayFile(); got != "" {
		t.Errorf("GetReplayFile() = %q, want empty", got)
	}
	if got := cfg.GetReplayDelay(); got != 0 {
		t.Errorf("GetReplayDelay() = %v, want 0", got)
	}
	if cfg.GetStrictMapNumbers() {
		t.Error("GetStrictMapNumbers() = true, want false")
	}
	if got := cfg.GetListenAddr(); got != ":8080" {
		t.Errorf("GetListenAddr() = %q, want :8080", got)
	}
	if got := cfg.GetDBPath(); got != "prt7.db" {
		t.Errorf("GetDBPath() = %q, want prt7.db", got)
	}
}

func TestLoadDecoderConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"serial_port": "/dev/ttyUSB0",
		"baud_rate": 115200,
		"replay_delay": "50ms",
		"strict_map_numbers": true,
		"listen_addr": ":9000"
	}`)

	cfg, err := LoadDecoderConfig(path)
	if err != nil {
		t.Fatalf("LoadDecoderConfig() error = %v", err)
	}

	if got := cfg.GetSerialPort(); got != "/dev/ttyUSB0" {
		t.Errorf("GetSerialPort() = %q, want /dev/ttyUSB0", got)
	}
	if got := cfg.GetBaudRate(); got != 115200 {
		t.Errorf("GetBaudRate() = %d, want 115200", got)
	}
	if got := cfg.GetReplayDelay(); got != 50*time.Millisecond {
		t.Errorf("GetReplayDelay() = %v, want 50ms", got)
	}
	if !cfg.GetStrictMapNumbers() {
		t.Error("GetStrictMapNumbers() = false, want true")
	}
	if got := cfg.GetListenAddr(); got != ":9000" {
		t.Errorf("GetListenAddr() = %q, want :9000", got)
	}

	// Fields absent from the file keep their defaults.
	if got := cfg.GetDBPath(); got != "prt7.db" {
		t.Errorf("GetDBPath() = %q, want prt7.db", got)
	}
}

func TestLoadDecoderConfigPartial(t *testing.T) {
	path := writeTempConfig(t, `{"baud_rate": 19200}`)

	cfg, err := LoadDecoderConfig(path)
	if err != nil {
		t.Fatalf("LoadDecoderConfig() error = %v", err)
	}

	if got := cfg.GetBaudRate(); got != 19200 {
		t.Errorf("GetBaudRate() = %d, want 19200", got)
	}
	if cfg.SerialPort != nil {
		t.Errorf("SerialPort = %v, want nil", *cfg.SerialPort)
	}
}

func TestLoadDecoderConfigRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decoder.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	_, err := LoadDecoderConfig(path)
	if err == nil {
		t.Fatal("expected error for non-json extension")
	}
	if !strings.Contains(err.Error(), ".json extension") {
		t.Errorf("error = %v, want extension complaint", err)
	}
}

func TestLoadDecoderConfigMissingFile(t *testing.T) {
	_, err := LoadDecoderConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDecoderConfigInvalidJSON(t *testing.T) {
	path := writeTempConfig(t, `{not json`)

	_, err := LoadDecoderConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *DecoderConfig
		wantErr bool
	}{
		{"empty config", EmptyDecoderConfig(), false},
		{"valid baud", &DecoderConfig{BaudRate: ptrInt(9600)}, false},
		{"zero baud", &DecoderConfig{BaudRate: ptrInt(0)}, true},
		{"negative baud", &DecoderConfig{BaudRate: ptrInt(-1)}, true},
		{"valid delay", &DecoderConfig{ReplayDelay: ptrString("250ms")}, false},
		{"garbage delay", &DecoderConfig{ReplayDelay: ptrString("soon")}, true},
		{"empty delay", &DecoderConfig{ReplayDelay: ptrString("")}, false},
		{"strict flag", &DecoderConfig{StrictMapNumbers: ptrBool(true)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDecoderConfigRejectsInvalidValues(t *testing.T) {
	path := writeTempConfig(t, `{"baud_rate": -9600}`)

	_, err := LoadDecoderConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "baud_rate") {
		t.Errorf("error = %v, want baud_rate complaint", err)
	}
}
