// Package config provides configuration loading for logs-analyzer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultFileName is the configuration file read when none is given.
	DefaultFileName = "logs-analyzer.ini"
	// DefaultDistance is the edit-distance threshold used when none is configured.
	DefaultDistance = 20
	// DefaultSource is scanned when no source is configured.
	DefaultSource = "logs"

	// SectionConfig is the reserved section carrying parameters and sources.
	SectionConfig = "CONFIG"
	// KeyDistance is the threshold parameter inside SectionConfig.
	KeyDistance = "distance"
)

const (
	// ErrCodeNotFound means the configuration file does not exist.
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid means the file could not be read or holds an invalid value.
	ErrCodeInvalid = "config_invalid"
)

// Error is a configuration error carrying a stable code.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code, or "" if err is not a *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Entry is one label = sample pair of a group section.
type Entry struct {
	Key   string
	Value string
}

// Section is a named group section, in file order.
type Section struct {
	Name    string
	Entries []Entry
}

// Config is the loaded configuration.
type Config struct {
	Path        string
	Sources     []string
	Sections    []Section // group sections only, CONFIG excluded
	NearestPool string    // empty unless set by a YAML file
	Distance    int
}

// Default returns the configuration used without a configuration file.
func Default() *Config {
	return &Config{
		Distance: DefaultDistance,
		Sources:  []string{DefaultSource},
	}
}

// Load reads the configuration file at path. Files ending in .yaml or .yml are
// read as YAML, anything else as INI.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	defer f.Close()

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(f)
	default:
		cfg, err = decodeINI(path, f)
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	cfg.Path = path
	if len(cfg.Sources) == 0 {
		cfg.Sources = []string{DefaultSource}
	}

	log.Debug().
		Str("path", path).
		Int("distance", cfg.Distance).
		Int("sections", len(cfg.Sections)).
		Strs("sources", cfg.Sources).
		Msg("Configuration loaded")

	return cfg, nil
}

// ParseDistance parses a threshold value. Non-integers and negative values are
// rejected.
func ParseDistance(value string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyDistance, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %d: must not be negative", KeyDistance, d)
	}
	return d, nil
}

// GroupCount returns the number of configured groups across all sections.
func (c *Config) GroupCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Entries)
	}
	return n
}
