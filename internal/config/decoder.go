package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DecoderConfig represents the root configuration for the decoding service.
// All fields are pointers so a partial JSON file only overrides the values
// it names; the Get* methods provide fallback defaults for the rest.
type DecoderConfig struct {
	// Serial port params
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`

	// Replay params
	ReplayFile  *string `json:"replay_file,omitempty"`
	ReplayDelay *string `json:"replay_delay,omitempty"` // duration string like "100ms"

	// Decoder params
	StrictMapNumbers *bool `json:"strict_map_numbers,omitempty"`

	// Service params
	ListenAddr *string `json:"listen_addr,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyDecoderConfig returns a DecoderConfig with all fields set to nil.
func EmptyDecoderConfig() *DecoderConfig {
	return &DecoderConfig{}
}

// LoadDecoderConfig loads a DecoderConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadDecoderConfig(path string) (*DecoderConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDecoderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *DecoderConfig) Validate() error {
	if c.BaudRate != nil {
		if *c.BaudRate <= 0 {
			return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
		}
	}

	if c.ReplayDelay != nil && *c.ReplayDelay != "" {
		if _, err := time.ParseDuration(*c.ReplayDelay); err != nil {
			return fmt.Errorf("invalid replay_delay '%s': %w", *c.ReplayDelay, err)
		}
	}

	return nil
}

// GetSerialPort returns the serial_port value or the default.
func (c *DecoderConfig) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

// GetBaudRate returns the baud_rate value or the default.
func (c *DecoderConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 9600 // default
	}
	return *c.BaudRate
}

// GetReplayFile returns the replay_file value or the default.
func (c *DecoderConfig) GetReplayFile() string {
	if c.ReplayFile == nil {
		return ""
	}
	return *c.ReplayFile
}

// GetReplayDelay parses and returns the ReplayDelay as a time.Duration.
func (c *DecoderConfig) GetReplayDelay() time.Duration {
	if c.ReplayDelay == nil || *c.ReplayDelay == "" {
		return 0 // default: replay as fast as the decoder reads
	}
	d, err := time.ParseDuration(*c.ReplayDelay)
	if err != nil {
		return 0 // default on parse error
	}
	return d
}

// GetStrictMapNumbers returns the strict_map_numbers value or the default.
func (c *DecoderConfig) GetStrictMapNumbers() bool {
	if c.StrictMapNumbers == nil {
		return false // default: lenient numeric-prefix parsing
	}
	return *c.StrictMapNumbers
}

// GetListenAddr returns the listen_addr value or the default.
func (c *DecoderConfig) GetListenAddr() string {
	if c.ListenAddr == nil {
		return ":8080" // default
	}
	return *c.ListenAddr
}

// GetDBPath returns the db_path value or the default.
func (c *DecoderConfig) GetDBPath() string {
	if c.DBPath == nil {
		return "prt7.db" // default
	}
	return *c.DBPath
}
