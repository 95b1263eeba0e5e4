// Package module implements the per-module load pipeline: preparing raw
// Wasm bytes, compiling and instantiating them against the runtime,
// locating and parsing the embedded interface-types section, and
// synthesizing the Module's exported Callables and WIT Instance. The
// Engine (package fce, at the repository root) owns a registry of these.
package module

import (
	"github.com/isgasho/fce/internal/werrors"
)

const (
	defaultMemoryMinPages uint32 = 16
	defaultMemoryMaxPages uint32 = 0 // unlimited
)

// Config configures one module load. Its builder-style With* methods defer
// validation errors to Build, so a chain of With* calls can be written
// without checking each one.
type Config struct {
	name           string
	raw            []byte
	memoryMinPages uint32
	memoryMaxPages uint32
	err            error
}

// NewConfig starts a Config for a module to be registered under name,
// compiled from raw Wasm bytes.
func NewConfig(name string, raw []byte) *Config {
	return &Config{
		name:           name,
		raw:            raw,
		memoryMinPages: defaultMemoryMinPages,
		memoryMaxPages: defaultMemoryMaxPages,
	}
}

// WithMemoryLimitPages records a minimum and maximum linear memory size,
// in 64KiB Wasm pages (max == 0 means unlimited), and Build rejects
// min > max. Load does not apply these values: the module's memory is
// sized only by its own declared memory type.
func (c *Config) WithMemoryLimitPages(min, max uint32) *Config {
	if max != 0 && min > max {
		c.err = werrors.PrepareFailed("minimum memory pages exceeds maximum")
		return c
	}
	c.memoryMinPages = min
	c.memoryMaxPages = max
	return c
}

// Build validates the accumulated configuration, returning any deferred
// With* error.
func (c *Config) Build() (*Config, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.raw) == 0 {
		return nil, werrors.PrepareFailed("empty module bytes")
	}
	return c, nil
}
