package fce

import "github.com/isgasho/fce/internal/module"

// WithMemoryLimitPages records a loaded module's minimum and maximum
// linear memory size, in 64KiB Wasm pages. Pass to Engine.Load, which
// rejects min > max; the values are not applied to the module's memory.
func WithMemoryLimitPages(min, max uint32) func(*module.Config) *module.Config {
	return func(c *module.Config) *module.Config { return c.WithMemoryLimitPages(min, max) }
}
