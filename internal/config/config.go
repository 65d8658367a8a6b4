package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/collector"
)

// ProjectFile is the per-project config file looked up in the working directory.
const ProjectFile = ".pawsconfig"

// Config holds all configurable paws settings. Command-line flags take
// precedence over every value here.
type Config struct {
	Output               string   `json:"output"`  // bundle written by pack, read by unpack
	Exclude              []string `json:"exclude"` // paths always excluded from pack
	IgnorePatterns       []string `json:"ignore_patterns"`
	ConventionalIncludes []string `json:"conventional_includes"`
	ForceBase64          *bool    `json:"force_base64,omitempty"`
	Dialect              string   `json:"dialect"`       // "cats" | "dogs"
	Overwrite            string   `json:"overwrite"`     // "prompt" | "yes" | "no"
	InputFormat          string   `json:"input_format"`  // "auto" | "b64" | "utf8"
	ReportFormat         string   `json:"report_format"` // "text" | "json" | "yaml"
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Output:               bundle.DefaultFilename,
		Exclude:              []string{},
		IgnorePatterns:       []string{},
		ConventionalIncludes: append([]string(nil), collector.DefaultConventionalIncludes...),
		Dialect:              "cats",
		Overwrite:            "prompt",
		InputFormat:          "auto",
		ReportFormat:         "text",
	}
}

// GlobalPath returns ~/.config/paws/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "paws", "config.json"), nil
}

// LoadGlobal reads ~/.config/paws/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .pawsconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Load reads and merges the global and project configs.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Defaults(), err
	}
	project, err := LoadProject()
	if err != nil {
		return Defaults(), err
	}
	return Merge(global, project), nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		setString(&result.Output, layer.Output)
		setString(&result.Dialect, layer.Dialect)
		setString(&result.Overwrite, layer.Overwrite)
		setString(&result.InputFormat, layer.InputFormat)
		setString(&result.ReportFormat, layer.ReportFormat)
		setSlice(&result.Exclude, layer.Exclude)
		setSlice(&result.IgnorePatterns, layer.IgnorePatterns)
		// An explicit empty list disables conventional includes.
		if layer.ConventionalIncludes != nil {
			result.ConventionalIncludes = layer.ConventionalIncludes
		}
		if layer.ForceBase64 != nil {
			v := *layer.ForceBase64
			result.ForceBase64 = &v
		}
	}
	return result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSlice(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// ForceBase64Enabled reports the effective force_base64 value.
func (c Config) ForceBase64Enabled() bool {
	return c.ForceBase64 != nil && *c.ForceBase64
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
