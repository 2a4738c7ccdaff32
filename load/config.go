package load

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Execution modes.
const (
	ModeStd  = "std"
	ModeGrid = "grid"
)

// Config is a run configuration, typically read from wasmarch.toml.
type Config struct {
	Mode         string     `toml:"mode"`
	Invoke       string     `toml:"invoke"`
	Args         []string   `toml:"args"`
	MaxCallDepth uint       `toml:"max_call_depth"`
	Fuel         uint64     `toml:"fuel"`
	Trace        string     `toml:"trace"`
	Verbose      bool       `toml:"verbose"`
	Seed         int64      `toml:"seed"`
	Grid         GridConfig `toml:"grid"`
}

// GridConfig configures grid mode.
type GridConfig struct {
	FPS int `toml:"fps"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeStd,
		Grid: GridConfig{FPS: 30},
	}
}

// ParseConfig parses a TOML configuration. Keys that are not part of the configuration are an error.
// Unset keys keep their default values.
func ParseConfig(data string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration's values.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeStd, ModeGrid:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if len(c.Args) != 0 && c.Invoke == "" {
		return fmt.Errorf("args given without a function to invoke")
	}
	if c.Grid.FPS <= 0 {
		return fmt.Errorf("grid fps must be positive, got %d", c.Grid.FPS)
	}
	return nil
}
