// Package config handles objmem.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/chazu/objmem/vm"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "objmem.toml"

// Config represents an objmem.toml configuration.
type Config struct {
	Memory   Memory   `toml:"memory"`
	Show     Show     `toml:"show"`
	Log      Log      `toml:"log"`
	Snapshot Snapshot `toml:"snapshot"`

	// Dir is the directory containing the objmem.toml file (set at load time).
	Dir string `toml:"-"`
}

// Memory tunes the object memory and collector.
type Memory struct {
	TenureAge    *int   `toml:"tenure-age"`
	CollectEvery *int   `toml:"collect-every"`
	MaxFields    *int64 `toml:"max-fields"`
}

// Show configures diagnostic rendering.
type Show struct {
	MaxLevel int `toml:"max-level"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Snapshot configures the snapshot database.
type Snapshot struct {
	Database string `toml:"database"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses objmem.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find an objmem.toml file, then
// loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if a := c.Memory.TenureAge; a != nil && (*a < 0 || *a > 255) {
		return fmt.Errorf("memory.tenure-age %d out of range 0..255", *a)
	}
	if n := c.Memory.CollectEvery; n != nil && *n < 0 {
		return fmt.Errorf("memory.collect-every must not be negative, got %d", *n)
	}
	if n := c.Memory.MaxFields; n != nil && (*n <= 0 || *n > vm.MaxFields) {
		return fmt.Errorf("memory.max-fields %d out of range 1..%d", *n, int64(vm.MaxFields))
	}
	if c.Show.MaxLevel < 0 {
		return fmt.Errorf("show.max-level must not be negative, got %d", c.Show.MaxLevel)
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := vm.DefaultOptions()
	if c.Memory.TenureAge == nil {
		age := int(d.TenureAge)
		c.Memory.TenureAge = &age
	}
	if c.Memory.CollectEvery == nil {
		every := d.CollectEvery
		c.Memory.CollectEvery = &every
	}
	if c.Memory.MaxFields == nil {
		limit := d.MaxFields
		c.Memory.MaxFields = &limit
	}
	if c.Show.MaxLevel == 0 {
		c.Show.MaxLevel = d.ShowLevel
	}
	if c.Snapshot.Database == "" {
		c.Snapshot.Database = "objmem-snapshots.db"
	}
}

// VMOptions converts the configuration into vm.Options.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{
		TenureAge:    uint8(*c.Memory.TenureAge),
		CollectEvery: *c.Memory.CollectEvery,
		ShowLevel:    c.Show.MaxLevel,
		MaxFields:    *c.Memory.MaxFields,
	}
}

// DatabasePath returns the snapshot database path, resolved against Dir
// when relative.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Snapshot.Database) || c.Dir == "" {
		return c.Snapshot.Database
	}
	return filepath.Join(c.Dir, c.Snapshot.Database)
}
