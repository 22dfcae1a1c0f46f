// Configures codecs and value conversion of a collection.

package recordset

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/maruel/recset/internal/calendar"
	"github.com/maruel/recset/internal/flatten"
	"github.com/maruel/recset/internal/record"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a collection. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// Separator joins the segments of compound CSV column names.
	Separator string `yaml:"separator"`

	// Flatten enables nested CSV columns. When false, nested values are
	// written to a single cell as JSON.
	Flatten bool `yaml:"flatten"`

	// CSVBOM prefixes written CSV files with a UTF-8 byte order mark so that
	// spreadsheet tools detect the encoding.
	CSVBOM bool `yaml:"csv_bom"`

	// JSONIndent is the number of spaces per JSON nesting level.
	JSONIndent int `yaml:"json_indent"`

	// DisplayStandard is the wall clock timestamps are written in and naive
	// timestamps are read in.
	DisplayStandard calendar.Standard `yaml:"display_standard"`

	// Calendar renders and parses timestamps. nil means calendar.Excel.
	Calendar calendar.Calendar `yaml:"-"`

	// Logger receives warnings and progress. nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Separator:       flatten.DefaultSeparator,
		Flatten:         true,
		CSVBOM:          true,
		JSONIndent:      4,
		DisplayStandard: calendar.CST,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Separator == "" {
		return fmt.Errorf("%w: separator must not be empty", ErrInvalidConfig)
	}
	if c.JSONIndent < 0 || c.JSONIndent > 16 {
		return fmt.Errorf("%w: json_indent must be between 0 and 16", ErrInvalidConfig)
	}
	if _, err := c.DisplayStandard.MarshalText(); err != nil {
		return fmt.Errorf("%w: display_standard: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is provided by the operator
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Config) recordOptions() record.Options {
	return record.Options{Calendar: c.Calendar, Standard: c.DisplayStandard, Logger: c.Logger}
}
